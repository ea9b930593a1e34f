package build

import (
	"path/filepath"
	"testing"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/runtime"
)

func TestPlatformSlug(t *testing.T) {
	if got := platformSlug("linux/amd64"); got != "linux-amd64" {
		t.Errorf("platformSlug = %q, want %q", got, "linux-amd64")
	}
	if got := platformSlug("linux/arm64"); got != "linux-arm64" {
		t.Errorf("platformSlug = %q, want %q", got, "linux-arm64")
	}
}

func TestStageLabel(t *testing.T) {
	if got := stageLabel("builder", 0); got != `"builder"` {
		t.Errorf("stageLabel = %q, want %q", got, `"builder"`)
	}
	if got := stageLabel("", 0); got != "1" {
		t.Errorf("stageLabel = %q, want %q", got, "1")
	}
	if got := stageLabel("", 2); got != "3" {
		t.Errorf("stageLabel = %q, want %q", got, "3")
	}
}

func TestContainerID(t *testing.T) {
	r := &recipe{resource: "docs-site"}

	if got := r.containerID("builder", 0, "linux/amd64"); got != "docs-site-linux-amd64-stage-builder" {
		t.Errorf("containerID = %q", got)
	}
	if got := r.containerID("", 1, "linux/arm64"); got != "docs-site-linux-arm64-stage-2" {
		t.Errorf("containerID = %q", got)
	}
}

func TestPlatformOutput(t *testing.T) {
	single := &recipe{output: "dist", platforms: []string{"linux/amd64"}}
	if got := single.platformOutput("linux/amd64"); got != "dist" {
		t.Errorf("single platform output = %q, want %q", got, "dist")
	}

	multi := &recipe{output: "dist", platforms: []string{"linux/amd64", "linux/arm64"}}
	want := filepath.Join("dist", "linux-arm64")
	if got := multi.platformOutput("linux/arm64"); got != want {
		t.Errorf("multi platform output = %q, want %q", got, want)
	}
}

func TestImageMeta(t *testing.T) {
	rec := &manifest.Recipe{
		Image: manifest.ImageMeta{
			Entrypoint:   []string{"mkdocs"},
			Cmd:          []string{"serve"},
			Env:          []string{"PATH=/opt/venv/bin"},
			WorkingDir:   "/docs",
			ExposedPorts: []string{"8000/tcp"},
			Volumes:      []string{"/docs"},
			Labels:       map[string]string{"io.docbake.variant": "full"},
		},
	}

	got := imageMeta(rec)
	want := runtime.ImageMeta{
		Entrypoint:   []string{"mkdocs"},
		Cmd:          []string{"serve"},
		Env:          []string{"PATH=/opt/venv/bin"},
		WorkingDir:   "/docs",
		ExposedPorts: []string{"8000/tcp"},
		Volumes:      []string{"/docs"},
		Labels:       map[string]string{"io.docbake.variant": "full"},
	}

	if got.WorkingDir != want.WorkingDir {
		t.Errorf("WorkingDir = %q, want %q", got.WorkingDir, want.WorkingDir)
	}
	if len(got.Entrypoint) != 1 || got.Entrypoint[0] != "mkdocs" {
		t.Errorf("Entrypoint = %v", got.Entrypoint)
	}
	if len(got.ExposedPorts) != 1 || got.ExposedPorts[0] != "8000/tcp" {
		t.Errorf("ExposedPorts = %v", got.ExposedPorts)
	}
	if got.Labels["io.docbake.variant"] != "full" {
		t.Errorf("Labels = %v", got.Labels)
	}
}
