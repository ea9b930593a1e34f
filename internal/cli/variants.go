package cli

import (
	"context"
	"fmt"

	"github.com/docbake/docbaked/internal/variant"
)

// Represents the 'docbaked variants' command.
type VariantsCmd struct{}

// Executes the variants command.
func (c *VariantsCmd) Run(ctx context.Context) error {
	for _, name := range variant.Names() {
		v, err := variant.Select(name)
		if err != nil {
			return err
		}
		fmt.Printf("%-10s%s\n", v.Name, v.Description)
	}
	return nil
}
