package theme

import (
	"strings"

	"github.com/docbake/docbaked/internal/manifest"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Path inside the image where the derived site configuration is written.
const ConfigPath = "/etc/mkdocs/mkdocs.yml"

// The derived site configuration.
//
// The generator merges the file at BasePath underneath the local settings,
// which is how the image picks up the externally maintained theme defaults
// without vendoring them.
type Inheritance struct {
	BasePath string // Theme base configuration path inside the image.
	SiteName string
	SiteURL  string
}

// Serialized form. Field order matters: the generator requires the INHERIT
// key before any local settings, and yaml.v3 emits struct fields in
// declaration order.
type inheritDoc struct {
	Inherit  string `yaml:"INHERIT"`
	SiteName string `yaml:"site_name,omitempty"`
	SiteURL  string `yaml:"site_url,omitempty"`
}

// Builds an [Inheritance] from the manifest's site section.
func FromSite(s manifest.Site) Inheritance {
	return Inheritance{
		BasePath: s.Inherit,
		SiteName: s.Name,
		SiteURL:  s.URL,
	}
}

// Renders the configuration as YAML with the inheritance pointer first.
func (i Inheritance) Render() (string, error) {
	if err := i.validate(); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(inheritDoc{
		Inherit:  i.BasePath,
		SiteName: i.SiteName,
		SiteURL:  i.SiteURL,
	})
	if err != nil {
		return "", zerr.Wrap(ErrInheritance, err.Error())
	}

	return string(data), nil
}

// Returns just the one-line inheritance pointer.
func (i Inheritance) Line() string {
	return "INHERIT: " + i.BasePath
}

func (i Inheritance) validate() error {
	if strings.TrimSpace(i.BasePath) == "" {
		return zerr.Wrap(ErrInheritance, "base path is required")
	}
	if !strings.HasPrefix(i.BasePath, "/") {
		return zerr.With(zerr.Wrap(ErrInheritance, "base path must be absolute"), "path", i.BasePath)
	}
	return nil
}
