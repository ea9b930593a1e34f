package manifest

import (
	"strings"

	"github.com/distribution/reference"
	"go.trai.ch/zerr"
)

// An ordered sequence of build stages executed against the container
// runtime.
type Recipe struct {
	Stages []Stage   `yaml:"stages"`
	Image  ImageMeta `yaml:"image,omitempty"`
}

// OCI configuration stamped on the exported image.
type ImageMeta struct {
	Entrypoint   []string          `yaml:"entrypoint,omitempty"`
	Cmd          []string          `yaml:"cmd,omitempty"`
	Env          []string          `yaml:"env,omitempty"`
	WorkingDir   string            `yaml:"workdir,omitempty"`
	ExposedPorts []string          `yaml:"ports,omitempty"`
	Volumes      []string          `yaml:"volumes,omitempty"`
	Labels       map[string]string `yaml:"labels,omitempty"`
}

// A build stage created from a base image or OCI archive.
//
// Transient stages exist only to prepare artifacts for later stages and are
// never exported.
type Stage struct {
	Name      string `yaml:"name,omitempty"`
	From      string `yaml:"from"`
	Transient bool   `yaml:"transient,omitempty"`
	Steps     []Step `yaml:"steps,omitempty"`
}

// A single build instruction.
//
// Exactly one of Run, Copy, or Write should be set for an operation step.
// Steps with only Shell, Workdir, or Env set are standalone modifiers that
// persist for the rest of the stage. Steps with nested Steps form a group
// whose modifiers apply to the whole group.
type Step struct {
	Run     string            `yaml:"run,omitempty"`
	Copy    string            `yaml:"copy,omitempty"`
	Write   string            `yaml:"write,omitempty"` // Literal file content placed at Dest.
	Dest    string            `yaml:"dest,omitempty"`  // Destination path for Write.
	Shell   string            `yaml:"shell,omitempty"`
	Workdir string            `yaml:"workdir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Steps   []Step            `yaml:"steps,omitempty"`
}

// Kind of a stage source.
type SourceKind int

const (
	// A registry image reference pulled by the runtime.
	SourceImage SourceKind = iota

	// A local OCI archive imported by the runtime.
	SourceArchive
)

// A resolved stage source: either an image reference or an archive path.
type Source struct {
	Kind  SourceKind
	Value string
}

// Parses the stage's From field into a [Source].
//
// Paths (absolute, relative with an explicit "./" or "../" prefix, or ending
// in ".tar") resolve to archives. Anything else must be a valid, normalized
// image reference.
func (s Stage) ParseFrom() (Source, error) {
	from := strings.TrimSpace(s.From)
	if from == "" {
		return Source{}, zerr.Wrap(ErrInvalidSource, "stage has no source")
	}

	if isArchivePath(from) {
		return Source{Kind: SourceArchive, Value: from}, nil
	}

	named, err := reference.ParseNormalizedNamed(from)
	if err != nil {
		return Source{}, zerr.Wrap(ErrInvalidSource, err.Error())
	}

	return Source{Kind: SourceImage, Value: reference.TagNameOnly(named).String()}, nil
}

// Whether a stage source denotes a local archive rather than an image
// reference.
func isArchivePath(from string) bool {
	return strings.HasSuffix(from, ".tar") ||
		strings.HasPrefix(from, "/") ||
		strings.HasPrefix(from, "./") ||
		strings.HasPrefix(from, "../")
}
