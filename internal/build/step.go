package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/runtime"
)

// Executes a list of steps in order against the build container.
func executeSteps(ctx context.Context, ctr *runtime.Container, steps []manifest.Step, state *stepState, buildCtx string, stages map[string]*runtime.Container) error {
	for i, step := range steps {
		if err := executeStep(ctx, ctr, step, state, buildCtx, stages); err != nil {
			return zerr.With(zerr.Wrap(err, "step failed"), "step", i+1)
		}
	}
	return nil
}

// Executes a single step, dispatching to operation execution, group recursion,
// or state mutation depending on the step's fields.
func executeStep(ctx context.Context, ctr *runtime.Container, step manifest.Step, state *stepState, buildCtx string, stages map[string]*runtime.Container) error {
	hasOp := step.Run != "" || step.Copy != "" || step.Write != ""

	// Group: apply group-level modifiers and recurse.
	if len(step.Steps) > 0 {
		state.apply(step)
		return executeSteps(ctx, ctr, step.Steps, state, buildCtx, stages)
	}

	// Operation with optional scoped modifiers.
	if hasOp {
		return executeOperation(ctx, ctr, step, state, buildCtx, stages)
	}

	// Standalone modifier(s): persist in state.
	state.apply(step)
	return nil
}

// Executes a run, write, or copy operation with scoped modifier overrides.
//
// Step-level modifiers override the persistent state for this operation only.
// The persistent state is not modified.
func executeOperation(ctx context.Context, ctr *runtime.Container, step manifest.Step, state *stepState, buildCtx string, stages map[string]*runtime.Container) error {
	resolved := state.resolve(step)

	if resolved.workdir != "" {
		if err := ctr.MkdirAll(ctx, resolved.workdir); err != nil {
			return err
		}
	}

	switch {
	case step.Run != "":
		slog.Debug("run", "command", step.Run, "shell", resolved.shell)
		result, err := ctr.Exec(ctx, resolved.shell, step.Run, resolved.environ(), resolved.workdir)
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			detail := fmt.Sprintf("exit code %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
			return zerr.With(zerr.Wrap(ErrCommandFailed, detail), "command", step.Run)
		}

	case step.Write != "":
		return executeWrite(ctx, ctr, step, resolved.workdir)

	case step.Copy != "":
		if err := executeCopy(ctx, ctr, step.Copy, resolved.workdir, buildCtx, stages); err != nil {
			return err
		}
	}

	return nil
}

// Places literal step content at the step's destination path inside the
// container. A relative destination is joined with the effective workdir.
func executeWrite(ctx context.Context, ctr *runtime.Container, step manifest.Step, workdir string) error {
	dest := step.Dest
	if dest == "" {
		return zerr.Wrap(ErrBuild, "write step requires dest")
	}
	if !filepath.IsAbs(dest) {
		if workdir == "" {
			return zerr.With(zerr.Wrap(ErrBuild, "relative dest requires a workdir"), "dest", dest)
		}
		dest = filepath.Join(workdir, dest)
	}

	slog.Debug("write", "dest", dest, "bytes", len(step.Write))
	return ctr.WriteFile(ctx, dest, step.Write)
}
