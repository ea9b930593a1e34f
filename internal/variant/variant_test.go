package variant

import (
	"errors"
	"strings"
	"testing"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/theme"
)

func testManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(`
site:
  name: Product Docs
  inherit: /opt/theme/mkdocs.yml
packages:
  - name: mkdocs
    version: "==1.6.1"
  - name: mkdocs-material
    version: ">=9.5,<10"
  - name: mkdocs-minify-plugin
    groups: [extras]
`))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return m
}

func TestNames(t *testing.T) {
	names := Names()
	want := []string{"full", "hardened", "slim"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSelect(t *testing.T) {
	for _, name := range Names() {
		v, err := Select(name)
		if err != nil {
			t.Fatalf("Select(%q): %v", name, err)
		}
		if v.Name != name {
			t.Errorf("Select(%q).Name = %q", name, v.Name)
		}
	}

	if _, err := Select("bogus"); !errors.Is(err, ErrUnknownVariant) {
		t.Fatalf("Select(bogus) = %v, want ErrUnknownVariant", err)
	}
}

func TestFullRecipe(t *testing.T) {
	v, _ := Select("full")
	recipe, err := v.Recipe(testManifest(t))
	if err != nil {
		t.Fatalf("recipe: %v", err)
	}

	if len(recipe.Stages) != 1 {
		t.Fatalf("stages = %d, want 1", len(recipe.Stages))
	}

	stage := recipe.Stages[0]
	if stage.Transient {
		t.Error("single stage must not be transient")
	}
	if !strings.Contains(stage.From, "python") {
		t.Errorf("from = %q, want a generator base image", stage.From)
	}

	var wroteRequirements, wroteInherit, installed, verified bool
	for _, step := range stage.Steps {
		switch {
		case step.Dest == requirementsPath:
			wroteRequirements = true
			if !strings.Contains(step.Write, "mkdocs-minify-plugin") {
				t.Error("full variant must include the extras group")
			}
		case step.Dest == theme.ConfigPath:
			wroteInherit = true
			if !strings.HasPrefix(step.Write, "INHERIT: /opt/theme/mkdocs.yml") {
				t.Errorf("inheritance config does not lead with INHERIT:\n%s", step.Write)
			}
		case strings.Contains(step.Run, "pip install"):
			installed = true
		case step.Run == generatorBin+" --version":
			verified = true
		}
	}

	if !wroteRequirements || !installed || !wroteInherit || !verified {
		t.Fatalf("missing steps: requirements=%t install=%t inherit=%t verify=%t",
			wroteRequirements, installed, wroteInherit, verified)
	}
}

func TestHardenedRecipeLayering(t *testing.T) {
	v, _ := Select("hardened")
	recipe, err := v.Recipe(testManifest(t))
	if err != nil {
		t.Fatalf("recipe: %v", err)
	}

	if len(recipe.Stages) != 2 {
		t.Fatalf("stages = %d, want 2", len(recipe.Stages))
	}

	builder, rt := recipe.Stages[0], recipe.Stages[1]
	if !builder.Transient {
		t.Error("builder stage must be transient")
	}
	if builder.Name != "builder" {
		t.Errorf("builder name = %q", builder.Name)
	}
	if rt.Transient {
		t.Error("runtime stage must be exported")
	}

	var crossCopy bool
	for _, step := range rt.Steps {
		if strings.HasPrefix(step.Copy, "builder:") {
			crossCopy = true
		}
		if strings.Contains(step.Run, "pip install") {
			t.Error("runtime stage must not run the installer")
		}
	}
	if !crossCopy {
		t.Error("runtime stage missing cross-stage virtualenv copy")
	}
}

func TestSlimRecipeExcludesExtras(t *testing.T) {
	v, _ := Select("slim")
	recipe, err := v.Recipe(testManifest(t))
	if err != nil {
		t.Fatalf("recipe: %v", err)
	}

	for _, step := range recipe.Stages[0].Steps {
		if step.Dest == requirementsPath && strings.Contains(step.Write, "minify") {
			t.Error("slim variant installed an extras package")
		}
		if strings.Contains(step.Run, "apt-get") {
			t.Error("slim variant ran Debian system setup")
		}
	}
}

func TestRecipeImageMeta(t *testing.T) {
	v, _ := Select("full")
	recipe, err := v.Recipe(testManifest(t))
	if err != nil {
		t.Fatalf("recipe: %v", err)
	}

	meta := recipe.Image
	if len(meta.Entrypoint) == 0 || meta.Entrypoint[0] != generatorBin {
		t.Errorf("entrypoint = %v", meta.Entrypoint)
	}
	if meta.WorkingDir != "/docs" {
		t.Errorf("workdir = %q, want /docs", meta.WorkingDir)
	}
	if len(meta.ExposedPorts) != 1 || meta.ExposedPorts[0] != sitePort {
		t.Errorf("ports = %v, want [%s]", meta.ExposedPorts, sitePort)
	}
	if meta.Labels["io.docbake.variant"] != "full" {
		t.Errorf("variant label = %q", meta.Labels["io.docbake.variant"])
	}
}

func TestRecipeEmptySelection(t *testing.T) {
	m, err := manifest.Parse([]byte("site:\n  name: x\n  inherit: /t.yml\npackages:\n  - name: only-extra\n    groups: [extras]\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	v, _ := Select("slim")
	if _, err := v.Recipe(m); err == nil {
		t.Fatal("expected error when no packages match the variant groups")
	}
}
