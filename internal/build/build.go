package build

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"

	"go.trai.ch/zerr"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/paths"
	"github.com/docbake/docbaked/internal/runtime"
)

// Controls recipe execution.
type Options struct {
	Recipe    *manifest.Recipe // Recipe to execute.
	Resource  string           // Resource name, used as a prefix for container IDs.
	Output    string           // Directory for the exported image archives.
	Root      string           // Host directory that relative copy and archive sources resolve against.
	Platforms []string         // Target platforms (e.g., ["linux/amd64"]). Defaults to host.
}

// Returned after successful recipe execution.
type Result struct {
	Outputs map[string]string // Exported archive path per platform.
}

// Executes a recipe against the container runtime.
//
// Stages are built in declaration order. Each stage starts a container from
// its base image, executes the stage's steps, and the non-transient stage is
// exported as the final image to the output directory.
func Run(ctx context.Context, rt *runtime.Runtime, opts Options) (*Result, error) {
	if len(opts.Platforms) == 0 {
		opts.Platforms = []string{"linux/" + goruntime.GOARCH}
	}

	slog.Info("executing recipe",
		"resource", opts.Resource,
		"output", opts.Output,
		"stages", len(opts.Recipe.Stages),
		"platforms", opts.Platforms,
	)

	if err := os.MkdirAll(opts.Output, paths.DefaultDirMode); err != nil {
		return nil, zerr.Wrap(ErrFileSystemOperation, err.Error())
	}

	return newRecipe(rt, opts).build(ctx, opts.Recipe)
}
