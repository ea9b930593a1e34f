package theme

import (
	"errors"
	"strings"
	"testing"

	"github.com/docbake/docbaked/internal/manifest"
)

func TestRender(t *testing.T) {
	inh := Inheritance{
		BasePath: "/opt/theme/mkdocs.yml",
		SiteName: "Product Docs",
		SiteURL:  "https://docs.example.com",
	}

	out, err := inh.Render()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "INHERIT: /opt/theme/mkdocs.yml" {
		t.Fatalf("first line = %q, want the inheritance pointer", lines[0])
	}
	if !strings.Contains(out, "site_name: Product Docs") {
		t.Errorf("output missing site_name:\n%s", out)
	}
	if !strings.Contains(out, "site_url: https://docs.example.com") {
		t.Errorf("output missing site_url:\n%s", out)
	}
}

func TestRenderOmitsEmptyFields(t *testing.T) {
	out, err := Inheritance{BasePath: "/opt/theme/mkdocs.yml"}.Render()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "site_name") || strings.Contains(out, "site_url") {
		t.Errorf("empty fields serialized:\n%s", out)
	}
}

func TestRenderValidation(t *testing.T) {
	if _, err := (Inheritance{}).Render(); !errors.Is(err, ErrInheritance) {
		t.Errorf("empty base path: error = %v, want ErrInheritance", err)
	}
	if _, err := (Inheritance{BasePath: "theme/base.yml"}).Render(); !errors.Is(err, ErrInheritance) {
		t.Errorf("relative base path: error = %v, want ErrInheritance", err)
	}
}

func TestLine(t *testing.T) {
	inh := Inheritance{BasePath: "/opt/theme/mkdocs.yml"}
	if got := inh.Line(); got != "INHERIT: /opt/theme/mkdocs.yml" {
		t.Fatalf("Line() = %q", got)
	}
}

func TestFromSite(t *testing.T) {
	inh := FromSite(manifest.Site{
		Name:    "Docs",
		URL:     "https://docs.example.com",
		Inherit: "/opt/theme/mkdocs.yml",
	})
	if inh.BasePath != "/opt/theme/mkdocs.yml" || inh.SiteName != "Docs" {
		t.Fatalf("FromSite = %+v", inh)
	}
}
