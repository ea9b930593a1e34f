package manifest

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Group assigned to packages that declare none. Every variant installs the
// default group.
const DefaultGroup = "core"

var (
	// Installer package names: letters, digits, and inner [._-] runs.
	namePattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

	// A single constraint clause as the installer accepts it, e.g. "==9.5.3",
	// ">=0.7", "~=1.4", "==9.*".
	clausePattern = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)\s*[0-9A-Za-z*!+.\-]+$`)
)

// A named third-party package with an installer version constraint.
//
// The constraint is never interpreted beyond syntax checking; resolution is
// the external installer's job. An empty constraint means any version.
type Package struct {
	Name       string   `yaml:"name"`
	Constraint string   `yaml:"version,omitempty"`
	Groups     []string `yaml:"groups,omitempty"`
}

// Identity of the documentation site baked into the image.
type Site struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url,omitempty"`
	Inherit string `yaml:"inherit"` // Path of the base theme configuration inside the image.
}

// Upstream theme repository snapshotted before a publish.
type Theme struct {
	Repository string `yaml:"repository"`
	Ref        string `yaml:"ref,omitempty"` // Branch, tag, or commit. Empty means the default branch.
}

// The dependency manifest: site identity, theme origin, and the ordered
// package list consumed by the installer.
type Manifest struct {
	Site     Site      `yaml:"site"`
	Theme    Theme     `yaml:"theme"`
	Packages []Package `yaml:"packages"`
}

// Reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.Wrap(ErrInvalidManifest, err.Error())
	}
	return Parse(data)
}

// Parses manifest YAML and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, zerr.Wrap(ErrInvalidManifest, err.Error())
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Checks structural validity: site fields, unique valid package names, and
// syntactically valid constraints.
func (m *Manifest) validate() error {
	if strings.TrimSpace(m.Site.Name) == "" {
		return zerr.Wrap(ErrInvalidManifest, "site.name is required")
	}
	if m.Site.Inherit != "" && !strings.HasPrefix(m.Site.Inherit, "/") {
		return zerr.With(zerr.Wrap(ErrInvalidManifest, "site.inherit must be an absolute path"), "inherit", m.Site.Inherit)
	}

	seen := make(map[string]bool, len(m.Packages))
	for i, pkg := range m.Packages {
		if !namePattern.MatchString(pkg.Name) {
			return zerr.With(zerr.With(zerr.Wrap(ErrInvalidManifest, "invalid package name"), "package", pkg.Name), "index", i)
		}

		key := normalizeName(pkg.Name)
		if seen[key] {
			return zerr.With(zerr.Wrap(ErrInvalidManifest, "duplicate package"), "package", pkg.Name)
		}
		seen[key] = true

		if err := ValidateConstraint(pkg.Constraint); err != nil {
			return zerr.Wrap(err, fmt.Sprintf("package %s", pkg.Name))
		}
	}

	return nil
}

// Checks that a constraint string is syntactically valid for the installer.
//
// A constraint is a comma-separated conjunction of clauses, each an operator
// followed by a version expression. The empty constraint is valid and means
// any version.
func ValidateConstraint(constraint string) error {
	if strings.TrimSpace(constraint) == "" {
		return nil
	}

	for _, clause := range strings.Split(constraint, ",") {
		if !clausePattern.MatchString(strings.TrimSpace(clause)) {
			return zerr.With(zerr.Wrap(ErrInvalidConstraint, "unparsable clause"), "clause", strings.TrimSpace(clause))
		}
	}

	return nil
}

// Reports whether the package belongs to the given group.
//
// Packages without explicit groups belong to [DefaultGroup].
func (p Package) InGroup(group string) bool {
	if len(p.Groups) == 0 {
		return group == DefaultGroup
	}
	return slices.Contains(p.Groups, group)
}

// Returns the installer requirement line for the package ("name" or
// "name==1.2.3").
func (p Package) Requirement() string {
	if p.Constraint == "" {
		return p.Name
	}
	return p.Name + p.Constraint
}

// Returns the ordered requirement lines for packages in any of the given
// groups. Declaration order is preserved; each package appears at most once.
func (m *Manifest) Requirements(groups ...string) []string {
	lines := make([]string, 0, len(m.Packages))
	for _, pkg := range m.Packages {
		for _, g := range groups {
			if pkg.InGroup(g) {
				lines = append(lines, pkg.Requirement())
				break
			}
		}
	}
	return lines
}

// Renders the requirements file consumed by the installer, one requirement
// per line with a trailing newline.
func (m *Manifest) RequirementsFile(groups ...string) string {
	lines := m.Requirements(groups...)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Returns the site name as a filesystem and image safe slug: lowercase
// letters and digits, with every other character replaced by a dash.
func (s Site) Slug() string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s.Name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}

// Canonicalizes a package name for duplicate detection. The installer treats
// [-_.] runs and case as equivalent.
func normalizeName(name string) string {
	lower := strings.ToLower(name)
	lower = strings.ReplaceAll(lower, "_", "-")
	return strings.ReplaceAll(lower, ".", "-")
}
