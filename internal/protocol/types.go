package protocol

import "github.com/docbake/docbaked/internal/manifest"

// Asks the daemon to execute a recipe and export the resulting image
// archives.
type BuildRequest struct {
	Recipe    *manifest.Recipe `json:"recipe"`              // Recipe to execute.
	Resource  string           `json:"resource"`            // Name used to derive container and image identifiers.
	Output    string           `json:"output"`              // Directory receiving the exported archives.
	Root      string           `json:"root,omitempty"`      // Host directory that relative copy sources resolve against.
	Platforms []string         `json:"platforms,omitempty"` // Target platforms. Empty builds for the host platform.
}

// Reports the archives produced by a build.
type BuildResult struct {
	Outputs map[string]string `json:"outputs"` // Archive path per platform.
}

// Asks the daemon to build and push images for a site.
type PublishRequest struct {
	Manifest  *manifest.Manifest `json:"manifest"`            // Site manifest to publish.
	Variant   string             `json:"variant,omitempty"`   // Image variant name. Empty uses the default.
	Reference string             `json:"reference"`           // Registry reference without a tag.
	Platforms []string           `json:"platforms,omitempty"` // Target platforms. Empty builds for the host platform.
}

// Reports the pushed image.
type PublishResult struct {
	Reference string   `json:"reference"` // Registry reference the index was pushed to.
	Tags      []string `json:"tags"`      // Tags applied to the pushed index.
	Digest    string   `json:"digest"`    // Digest of the image index.
}

// Reports daemon health and counters.
type StatusResult struct {
	Running   bool   `json:"running"`
	Version   string `json:"version"`
	Pid       int    `json:"pid"`
	Uptime    string `json:"uptime"`
	Builds    int    `json:"builds"`
	Publishes int    `json:"publishes"`
}

// Carries an error message back to the client.
type ErrorResult struct {
	Message string `json:"message"`
}
