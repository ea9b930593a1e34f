package runtime

import (
	"testing"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

func TestManifestGCLabels(t *testing.T) {
	m := ocispec.Manifest{
		Config: ocispec.Descriptor{Digest: digest.Digest("sha256:aaa")},
		Layers: []ocispec.Descriptor{
			{Digest: digest.Digest("sha256:bbb")},
			{Digest: digest.Digest("sha256:ccc")},
		},
	}

	labels := manifestGCLabels(m)

	if got := labels["containerd.io/gc.ref.content.config"]; got != "sha256:aaa" {
		t.Errorf("config label = %q, want %q", got, "sha256:aaa")
	}
	if got := labels["containerd.io/gc.ref.content.l.0"]; got != "sha256:bbb" {
		t.Errorf("layer 0 label = %q, want %q", got, "sha256:bbb")
	}
	if got := labels["containerd.io/gc.ref.content.l.1"]; got != "sha256:ccc" {
		t.Errorf("layer 1 label = %q, want %q", got, "sha256:ccc")
	}
	if len(labels) != 3 {
		t.Errorf("len(labels) = %d, want 3", len(labels))
	}
}

func TestIndexGCLabels(t *testing.T) {
	idx := ocispec.Index{
		Manifests: []ocispec.Descriptor{
			{Digest: digest.Digest("sha256:one")},
			{Digest: digest.Digest("sha256:two")},
		},
	}

	labels := indexGCLabels(idx)

	if got := labels["containerd.io/gc.ref.content.m.0"]; got != "sha256:one" {
		t.Errorf("manifest 0 label = %q, want %q", got, "sha256:one")
	}
	if got := labels["containerd.io/gc.ref.content.m.1"]; got != "sha256:two" {
		t.Errorf("manifest 1 label = %q, want %q", got, "sha256:two")
	}
	if len(labels) != 2 {
		t.Errorf("len(labels) = %d, want 2", len(labels))
	}
}

func TestApplyMeta(t *testing.T) {
	config := &ocispec.Image{}
	config.Config.Entrypoint = []string{"/bin/sh"}
	config.Config.Cmd = []string{"-c", "true"}
	config.Config.Env = []string{"PATH=/usr/bin", "LANG=C"}

	applyMeta(config, ImageMeta{
		Entrypoint:   []string{"mkdocs"},
		Cmd:          []string{"serve"},
		Env:          []string{"PATH=/opt/venv/bin", "HOME=/docs"},
		WorkingDir:   "/docs",
		ExposedPorts: []string{"8000/tcp"},
		Volumes:      []string{"/docs"},
		Labels:       map[string]string{"io.docbake.variant": "full"},
	})

	if got := config.Config.Entrypoint; len(got) != 1 || got[0] != "mkdocs" {
		t.Errorf("Entrypoint = %v, want [mkdocs]", got)
	}
	if got := config.Config.Cmd; len(got) != 1 || got[0] != "serve" {
		t.Errorf("Cmd = %v, want [serve]", got)
	}
	if got := config.Config.WorkingDir; got != "/docs" {
		t.Errorf("WorkingDir = %q, want %q", got, "/docs")
	}

	env := make(map[string]bool, len(config.Config.Env))
	for _, e := range config.Config.Env {
		env[e] = true
	}
	for _, want := range []string{"PATH=/opt/venv/bin", "LANG=C", "HOME=/docs"} {
		if !env[want] {
			t.Errorf("Env missing %q, got %v", want, config.Config.Env)
		}
	}
	if env["PATH=/usr/bin"] {
		t.Errorf("Env kept overridden PATH: %v", config.Config.Env)
	}

	if _, ok := config.Config.ExposedPorts["8000/tcp"]; !ok {
		t.Errorf("ExposedPorts missing 8000/tcp: %v", config.Config.ExposedPorts)
	}
	if _, ok := config.Config.Volumes["/docs"]; !ok {
		t.Errorf("Volumes missing /docs: %v", config.Config.Volumes)
	}
	if got := config.Config.Labels["io.docbake.variant"]; got != "full" {
		t.Errorf("variant label = %q, want %q", got, "full")
	}
}

func TestApplyMetaEmpty(t *testing.T) {
	config := &ocispec.Image{}
	config.Config.Entrypoint = []string{"/bin/sh"}
	config.Config.Cmd = []string{"-c", "true"}
	config.Config.WorkingDir = "/root"

	applyMeta(config, ImageMeta{})

	if got := config.Config.Entrypoint; len(got) != 1 || got[0] != "/bin/sh" {
		t.Errorf("Entrypoint = %v, want [/bin/sh]", got)
	}
	if got := config.Config.Cmd; len(got) != 2 {
		t.Errorf("Cmd = %v, want original", got)
	}
	if got := config.Config.WorkingDir; got != "/root" {
		t.Errorf("WorkingDir = %q, want %q", got, "/root")
	}
	if config.Config.ExposedPorts != nil {
		t.Errorf("ExposedPorts = %v, want nil", config.Config.ExposedPorts)
	}
}
