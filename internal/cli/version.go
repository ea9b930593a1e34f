package cli

import (
	"context"
	"fmt"

	"github.com/docbake/docbaked/internal"
)

// Represents the 'docbaked version' command.
type VersionCmd struct{}

// Executes the version command.
func (c *VersionCmd) Run(ctx context.Context) error {
	fmt.Println(internal.VersionString())
	return nil
}
