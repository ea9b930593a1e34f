package cli

import (
	"context"
	"fmt"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/protocol"
	"github.com/docbake/docbaked/internal/variant"
)

// Represents the 'docbaked build' command.
type BuildCmd struct {
	Manifest string   `arg:"" optional:"" default:"docbake.yml" help:"Path to the site manifest." type:"path"`
	Variant  string   `short:"V" default:"full" help:"Image variant to build." enum:"${variants}"`
	Output   string   `short:"o" default:"dist" help:"Directory for the exported image archives." type:"path"`
	Root     string   `short:"r" default:"." help:"Build context for relative copy sources." type:"path"`
	Platform []string `short:"p" help:"Target platform (repeatable), e.g. linux/amd64."`
}

// Executes the build command.
//
// Resolves the manifest into the selected variant's recipe locally, then
// sends the recipe to the daemon for execution.
func (c *BuildCmd) Run(ctx context.Context) error {
	m, err := manifest.Load(c.Manifest)
	if err != nil {
		return err
	}

	v, err := variant.Select(c.Variant)
	if err != nil {
		return err
	}

	recipe, err := v.Recipe(m)
	if err != nil {
		return err
	}

	resp, err := request(protocol.CmdBuild, &protocol.BuildRequest{
		Recipe:    recipe,
		Resource:  m.Site.Slug() + "-" + v.Name,
		Output:    c.Output,
		Root:      c.Root,
		Platforms: c.Platform,
	})
	if err != nil {
		return err
	}

	result, err := protocol.DecodePayload[protocol.BuildResult](resp)
	if err != nil {
		return err
	}

	for platform, archive := range result.Outputs {
		fmt.Printf("%s\t%s\n", platform, archive)
	}
	return nil
}
