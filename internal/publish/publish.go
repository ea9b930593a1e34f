package publish

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/distribution/reference"
	"go.trai.ch/zerr"

	"github.com/docbake/docbaked/internal/build"
	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/paths"
	"github.com/docbake/docbaked/internal/runtime"
	"github.com/docbake/docbaked/internal/theme"
	"github.com/docbake/docbaked/internal/variant"
)

// Variant published when no variant is requested.
const DefaultVariant = "full"

// Length of the abbreviated commit hash used as an image tag.
const shortHashLen = 12

// Environment variables consulted for registry and theme credentials.
const (
	EnvRegistryUsername = "REGISTRY_USERNAME"
	EnvRegistryPassword = "REGISTRY_PASSWORD"
	EnvThemeToken       = "GITHUB_TOKEN"
)

// Controls a publish run.
type Options struct {
	Manifest    *manifest.Manifest  // Site manifest to publish.
	Variant     string              // Variant name. Empty uses [DefaultVariant].
	Reference   string              // Registry reference without a tag.
	Platforms   []string            // Target platforms. Empty builds for the host platform.
	Workspace   string              // Directory holding theme clones. Empty uses the default cache path.
	Output      string              // Directory receiving build artifacts. Empty uses the default cache path.
	Credentials runtime.Credentials // Registry credentials. Zero value pushes anonymously.
	ThemeToken  string              // Token for cloning a private theme repository.
}

// Returned after a successful publish.
type Result struct {
	Reference string   // Registry reference the index was pushed to.
	Tags      []string // Tags applied to the pushed index.
	Digest    string   // Digest of the image index.
	Commit    string   // Theme snapshot commit the image was built from.
}

// Runs the publish pipeline end-to-end.
//
// The theme repository is synced to its pinned ref, the selected variant's
// recipe is built for every target platform with the snapshot as the build
// context, and the per-platform archives are assembled into one image index
// pushed under each computed tag.
func Run(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	named, err := parseReference(opts.Reference)
	if err != nil {
		return nil, err
	}

	name := opts.Variant
	if name == "" {
		name = DefaultVariant
	}
	v, err := variant.Select(name)
	if err != nil {
		return nil, err
	}

	workspace := opts.Workspace
	if workspace == "" {
		workspace = paths.ThemeWorkspace()
	}
	output := opts.Output
	if output == "" {
		output = paths.ImageOutput()
	}

	site := opts.Manifest.Site.Slug()

	snap := theme.Snapshot{
		URL:   opts.Manifest.Theme.Repository,
		Ref:   opts.Manifest.Theme.Ref,
		Dir:   filepath.Join(workspace, site),
		Token: opts.ThemeToken,
	}
	commit, err := snap.Sync(ctx)
	if err != nil {
		return nil, err
	}

	recipe, err := v.Recipe(opts.Manifest)
	if err != nil {
		return nil, err
	}

	resource := site + "-" + v.Name
	result, err := build.Run(ctx, rt, build.Options{
		Recipe:    recipe,
		Resource:  resource,
		Output:    filepath.Join(output, resource),
		Root:      snap.Dir,
		Platforms: opts.Platforms,
	})
	if err != nil {
		return nil, err
	}

	entries, err := importArchives(ctx, rt, resource, result.Outputs)
	if err != nil {
		return nil, err
	}

	tags := Tags(v.Name, commit)
	refs, err := taggedReferences(named, tags)
	if err != nil {
		return nil, err
	}

	var digest string
	for _, tagged := range refs {
		desc, err := rt.WriteIndex(ctx, tagged.String(), entries)
		if err != nil {
			return nil, zerr.Wrap(ErrPublish, err.Error())
		}
		digest = desc.Digest.String()

		slog.Info("pushing image index", "reference", tagged.String(), "digest", digest)

		if err := rt.Push(ctx, tagged.String(), desc, opts.Credentials); err != nil {
			return nil, zerr.Wrap(ErrPublish, err.Error())
		}
	}

	removeStaged(ctx, rt, resource, result.Outputs)

	return &Result{
		Reference: named.Name(),
		Tags:      tags,
		Digest:    digest,
		Commit:    commit,
	}, nil
}

// Imports each platform's exported archive into the content store, returning
// platform-annotated index entries in deterministic platform order.
func importArchives(ctx context.Context, rt *runtime.Runtime, resource string, outputs map[string]string) ([]runtime.PlatformImage, error) {
	platforms := make([]string, 0, len(outputs))
	for platform := range outputs {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	entries := make([]runtime.PlatformImage, 0, len(platforms))
	for _, platform := range platforms {
		desc, err := rt.ImportArchive(ctx, outputs[platform], stageTag(resource, platform))
		if err != nil {
			return nil, zerr.Wrap(ErrPublish, err.Error())
		}

		entries = append(entries, runtime.PlatformImage{Platform: platform, Target: desc})
	}

	return entries, nil
}

// Tag under which one platform's archive is staged in the content store
// while the index is assembled.
func stageTag(resource, platform string) string {
	return resource + "-" + strings.ReplaceAll(platform, "/", "-") + ":latest"
}

// Removes the staged per-platform images once the index is pushed. The
// pushed index holds its own content references, so the staging tags are
// only clutter afterwards. Failures are logged, not fatal.
func removeStaged(ctx context.Context, rt *runtime.Runtime, resource string, outputs map[string]string) {
	for platform := range outputs {
		if err := rt.DestroyImage(ctx, stageTag(resource, platform)); err != nil {
			slog.Warn("failed to remove staged platform image", "platform", platform, "error", err)
		}
	}
}

// Expands the computed tags into full references on the publish target.
func taggedReferences(named reference.Named, tags []string) ([]reference.NamedTagged, error) {
	refs := make([]reference.NamedTagged, 0, len(tags))
	for _, tag := range tags {
		tagged, err := reference.WithTag(named, tag)
		if err != nil {
			return nil, zerr.Wrap(ErrInvalidReference, err.Error())
		}
		refs = append(refs, tagged)
	}
	return refs, nil
}

// Computes the tags applied to a published image.
//
// The default variant is tagged latest plus the abbreviated snapshot commit.
// Other variants are tagged by name, with the commit tag suffixed by the
// variant so parallel variants never collide.
func Tags(variantName, commit string) []string {
	short := commit
	if len(short) > shortHashLen {
		short = short[:shortHashLen]
	}

	if variantName == DefaultVariant {
		if short == "" {
			return []string{"latest"}
		}
		return []string{"latest", short}
	}

	if short == "" {
		return []string{variantName}
	}
	return []string{variantName, short + "-" + variantName}
}

// Validates a registry reference for publishing. The reference must not
// carry a tag or digest; tags are computed by the pipeline.
func parseReference(ref string) (reference.Named, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return nil, zerr.Wrap(ErrInvalidReference, err.Error())
	}
	if _, ok := named.(reference.Tagged); ok {
		return nil, zerr.With(zerr.Wrap(ErrInvalidReference, "must not include a tag"), "reference", ref)
	}
	if _, ok := named.(reference.Digested); ok {
		return nil, zerr.With(zerr.Wrap(ErrInvalidReference, "must not include a digest"), "reference", ref)
	}
	return named, nil
}

// Reads registry credentials and the theme token from the environment.
func CredentialsFromEnv() (runtime.Credentials, string) {
	return runtime.Credentials{
		Username: os.Getenv(EnvRegistryUsername),
		Secret:   os.Getenv(EnvRegistryPassword),
	}, os.Getenv(EnvThemeToken)
}
