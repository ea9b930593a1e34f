package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/paths"
	"github.com/docbake/docbaked/internal/protocol"
	"github.com/docbake/docbaked/internal/runtime"
)

// Holds shared state for building all stages of a recipe.
type recipe struct {
	rt         *runtime.Runtime     // Container runtime for image and container operations.
	resource   string               // Resource name, used as a prefix for container IDs.
	output     string               // Output directory for the final build artifact.
	context    string               // Directory that relative copy and archive sources resolve against.
	platforms  []string             // Target platforms to build for.
	containers []*runtime.Container // All stage containers across all platforms, destroyed after the build completes.
}

// Creates a new [recipe] from the given options.
func newRecipe(rt *runtime.Runtime, opts Options) *recipe {
	return &recipe{
		rt:        rt,
		resource:  opts.Resource,
		output:    opts.Output,
		context:   opts.Root,
		platforms: opts.Platforms,
	}
}

// Builds the recipe end-to-end against the container runtime.
//
// Each target platform is built independently. Stages are built in declaration
// order for each platform. The non-transient stage is exported as the final
// image to the platform's output directory. All stage containers are destroyed
// when the build completes.
func (r *recipe) build(ctx context.Context, rec *manifest.Recipe) (*Result, error) {
	defer r.destroyContainers(ctx)

	outputs := make(map[string]string, len(r.platforms))

	for _, platform := range r.platforms {
		archive, err := r.buildPlatform(ctx, rec, platform)
		if err != nil {
			return nil, err
		}
		outputs[platform] = archive
	}

	return &Result{Outputs: outputs}, nil
}

// Builds all stages of the recipe for a single platform, returning the path
// of the exported archive.
//
// Each platform maintains its own set of named stage containers for
// cross-stage copy lookups. The output is written to a platform-specific
// subdirectory when building for multiple platforms.
func (r *recipe) buildPlatform(ctx context.Context, rec *manifest.Recipe, platform string) (string, error) {
	slog.Info("building platform", "platform", platform)

	output := r.platformOutput(platform)
	if err := os.MkdirAll(output, paths.DefaultDirMode); err != nil {
		return "", zerr.Wrap(ErrFileSystemOperation, err.Error())
	}

	stages := make(map[string]*runtime.Container)

	for i, stage := range rec.Stages {
		if err := r.buildStage(ctx, rec, stage, i, platform, output, stages); err != nil {
			wrapped := zerr.With(zerr.Wrap(ErrBuild, err.Error()), "platform", platform)
			return "", zerr.With(wrapped, "stage", stageLabel(stage.Name, i))
		}
	}

	return filepath.Join(output, runtime.ArchiveName), nil
}

// Builds a single stage of a recipe for a specific platform.
//
// Resolves the stage's base, starts a build container, executes the stage's
// steps, then commits the result. Non-transient stages are exported to the
// output directory with the recipe's image configuration applied.
func (r *recipe) buildStage(ctx context.Context, rec *manifest.Recipe, stage manifest.Stage, index int, platform, output string, stages map[string]*runtime.Container) error {
	label := stageLabel(stage.Name, index)
	slog.Info(fmt.Sprintf("building stage %s", label), "platform", platform)

	src, err := stage.ParseFrom()
	if err != nil {
		return err
	}

	id := r.containerID(stage.Name, index, platform)

	ctr, err := r.startContainer(ctx, src, id, platform)
	if err != nil {
		return zerr.Wrap(err, "starting stage container")
	}

	r.containers = append(r.containers, ctr)
	if stage.Name != "" {
		stages[stage.Name] = ctr
	}

	if err := executeSteps(ctx, ctr, stage.Steps, newStepState(), r.context, stages); err != nil {
		return err
	}

	if !stage.Transient {
		if err := ctr.Stop(ctx); err != nil {
			return zerr.Wrap(err, "stopping stage container")
		}

		if err := ctr.Export(ctx, output, imageMeta(rec)); err != nil {
			return zerr.Wrap(err, "exporting stage")
		}
	}

	return nil
}

// Starts a stage container from its parsed source. Registry images are
// pulled for the target platform; archive sources are imported from the
// host filesystem, resolved against the build context when relative.
func (r *recipe) startContainer(ctx context.Context, src manifest.Source, id, platform string) (*runtime.Container, error) {
	r.removeStale(ctx, id)

	switch src.Kind {
	case manifest.SourceArchive:
		path := src.Value
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.context, path)
		}
		return r.rt.StartFromArchive(ctx, path, id, platform)
	default:
		return r.rt.StartFromImage(ctx, src.Value, id, platform)
	}
}

// Removes a leftover container from an aborted earlier build.
//
// Container IDs are deterministic per resource, stage, and platform, so a
// crashed run leaves a record that would collide with this one.
func (r *recipe) removeStale(ctx context.Context, id string) {
	stale := r.rt.Container(id)

	state, err := stale.Status(ctx)
	if err != nil || state == protocol.ContainerNotCreated {
		return
	}

	slog.Info("removing stale stage container", "id", id, "state", state)
	stale.Destroy(ctx)
}

// Destroys all stage containers.
func (r *recipe) destroyContainers(ctx context.Context) {
	for _, ctr := range r.containers {
		ctr.Destroy(ctx)
	}
}

// Returns a unique container ID for a stage, scoped to this resource and platform.
func (r *recipe) containerID(name string, index int, platform string) string {
	slug := platformSlug(platform)
	if name != "" {
		return fmt.Sprintf("%s-%s-stage-%s", r.resource, slug, name)
	}
	return fmt.Sprintf("%s-%s-stage-%d", r.resource, slug, index+1)
}

// Returns the output directory for a specific platform.
//
// When building for a single platform, the output directory is left as-is
// to preserve the existing {output}/image.tar convention. For multi-platform
// builds, each platform gets a subdirectory (e.g., {output}/linux-amd64).
func (r *recipe) platformOutput(platform string) string {
	if len(r.platforms) == 1 {
		return r.output
	}
	return filepath.Join(r.output, platformSlug(platform))
}

// Maps the recipe's image section onto the runtime's export configuration.
func imageMeta(rec *manifest.Recipe) runtime.ImageMeta {
	return runtime.ImageMeta{
		Entrypoint:   rec.Image.Entrypoint,
		Cmd:          rec.Image.Cmd,
		Env:          rec.Image.Env,
		WorkingDir:   rec.Image.WorkingDir,
		ExposedPorts: rec.Image.ExposedPorts,
		Volumes:      rec.Image.Volumes,
		Labels:       rec.Image.Labels,
	}
}

// Converts a platform string to a filesystem-safe slug.
//
// Replaces slashes with dashes (e.g., "linux/amd64" becomes "linux-amd64").
func platformSlug(platform string) string {
	return strings.ReplaceAll(platform, "/", "-")
}

// Returns a label for a stage, preferring the name when available and falling
// back to the 1-based index.
func stageLabel(name string, index int) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%d", index+1)
}
