package runtime

import (
	"context"
	"encoding/json"
	"log/slog"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/content"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/containerd/v2/core/remotes/docker"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/zerr"
)

// Pairs a target platform with the manifest descriptor of an image built
// for it.
type PlatformImage struct {
	Platform string
	Target   ocispec.Descriptor
}

// Registry credentials passed through to the docker resolver unmodified.
// Empty credentials attempt an anonymous push.
type Credentials struct {
	Username string
	Secret   string // Password or access token.
}

// Assembles a multi-architecture OCI index from per-platform image targets
// and records it under the given reference.
//
// Each entry's target is narrowed to its platform manifest (imported
// archives may carry a single-entry index as their root) and annotated with
// explicit platform metadata so registries can serve the right manifest
// without probing configs. The index blob carries GC reference labels and
// is rooted by the image record, keeping it reachable until the record is
// deleted.
func (rt *Runtime) WriteIndex(ctx context.Context, ref string, entries []PlatformImage) (ocispec.Descriptor, error) {
	if len(entries) == 0 {
		return ocispec.Descriptor{}, ErrEmptyIndex
	}

	manifests := make([]ocispec.Descriptor, 0, len(entries))
	for _, entry := range entries {
		desc, err := rt.platformManifest(ctx, entry)
		if err != nil {
			return ocispec.Descriptor{}, zerr.Wrap(ErrRuntime, err.Error())
		}
		manifests = append(manifests, desc)
	}

	index := ocispec.Index{
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: manifests,
	}
	index.SchemaVersion = 2

	ctx, done, err := rt.client.WithLease(ctx)
	if err != nil {
		return ocispec.Descriptor{}, zerr.Wrap(ErrRuntime, err.Error())
	}
	defer done(context.Background())

	desc, err := writeBlob(ctx, rt.client.ContentStore(), ocispec.MediaTypeImageIndex, index, ref+"-index", content.WithLabels(indexGCLabels(index)))
	if err != nil {
		return ocispec.Descriptor{}, zerr.Wrap(ErrRuntime, err.Error())
	}

	if err := rt.recordImage(ctx, ref, desc); err != nil {
		return ocispec.Descriptor{}, zerr.Wrap(ErrRuntime, err.Error())
	}

	slog.Debug("index assembled", "ref", ref, "platforms", len(manifests), "digest", desc.Digest)
	return desc, nil
}

// Narrows a platform entry's target to a manifest descriptor with explicit
// platform metadata.
func (rt *Runtime) platformManifest(ctx context.Context, entry PlatformImage) (ocispec.Descriptor, error) {
	p, err := platforms.Parse(entry.Platform)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	desc := entry.Target

	// Archives exported per platform carry a single-entry index root.
	if images.IsIndexType(desc.MediaType) {
		idx, err := rt.readIndex(ctx, desc)
		if err != nil {
			return ocispec.Descriptor{}, err
		}
		if len(idx.Manifests) == 0 {
			return ocispec.Descriptor{}, zerr.With(zerr.Wrap(ErrEmptyIndex, "no manifest for platform"), "platform", entry.Platform)
		}
		desc = idx.Manifests[0]
	}

	desc.Platform = &p
	return desc, nil
}

// Loads an OCI image index from the content store.
func (rt *Runtime) readIndex(ctx context.Context, desc ocispec.Descriptor) (ocispec.Index, error) {
	b, err := content.ReadBlob(ctx, rt.client.ContentStore(), desc)
	if err != nil {
		return ocispec.Index{}, err
	}
	var idx ocispec.Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return ocispec.Index{}, err
	}
	return idx, nil
}

// Creates or updates an image record pointing at the target descriptor.
func (rt *Runtime) recordImage(ctx context.Context, ref string, target ocispec.Descriptor) error {
	is := rt.client.ImageService()

	img := images.Image{Name: ref, Target: target}
	if _, err := is.Create(ctx, img); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return err
		}
		if _, err := is.Update(ctx, img, "target"); err != nil {
			return err
		}
	}
	return nil
}

// Pushes a descriptor and all content it references to the registry the
// reference names.
//
// Credentials are handed to the docker resolver's authorizer unmodified;
// registry-specific host configuration (TLS, endpoints) follows the
// resolver defaults.
func (rt *Runtime) Push(ctx context.Context, ref string, desc ocispec.Descriptor, creds Credentials) error {
	authorizer := docker.NewDockerAuthorizer(docker.WithAuthCreds(func(string) (string, string, error) {
		return creds.Username, creds.Secret, nil
	}))

	resolver := docker.NewResolver(docker.ResolverOptions{
		Hosts: docker.ConfigureDefaultRegistries(docker.WithAuthorizer(authorizer)),
	})

	slog.Info("pushing image", "ref", ref, "digest", desc.Digest)

	if err := rt.client.Push(ctx, ref, desc, containerd.WithResolver(resolver)); err != nil {
		return zerr.Wrap(ErrRuntime, err.Error())
	}

	return nil
}
