package build

import (
	"context"
	"errors"
	"testing"

	"github.com/docbake/docbaked/internal/manifest"
)

func TestExecuteWriteValidation(t *testing.T) {
	ctx := context.Background()

	// Validation errors are raised before the container is touched, so a
	// nil container is safe here.
	err := executeWrite(ctx, nil, manifest.Step{Write: "INHERIT: /opt/theme/mkdocs.yml\n"}, "/docs")
	if err == nil {
		t.Fatal("expected error for write step without dest, got nil")
	}
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("error = %v, want ErrBuild in chain", err)
	}

	err = executeWrite(ctx, nil, manifest.Step{Write: "content", Dest: "mkdocs.yml"}, "")
	if err == nil {
		t.Fatal("expected error for relative dest without workdir, got nil")
	}
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("error = %v, want ErrBuild in chain", err)
	}
}

func TestExecuteStepsWrapsStepIndex(t *testing.T) {
	ctx := context.Background()

	steps := []manifest.Step{
		{Shell: "/bin/bash"},
		{Write: "site_name: Docs\n"}, // no dest
	}

	err := executeSteps(ctx, nil, steps, newStepState(), "", nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrBuild) {
		t.Fatalf("error = %v, want ErrBuild in chain", err)
	}
}
