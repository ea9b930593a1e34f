package cli

import (
	"context"
	"fmt"

	"github.com/docbake/docbaked/internal/manifest"
	"github.com/docbake/docbaked/internal/protocol"
)

// Represents the 'docbaked publish' command.
type PublishCmd struct {
	Reference string   `arg:"" help:"Registry reference to push to, without a tag (e.g. ghcr.io/acme/docs)."`
	Manifest  string   `short:"m" default:"docbake.yml" help:"Path to the site manifest." type:"path"`
	Variant   string   `short:"V" default:"full" help:"Image variant to publish." enum:"${variants}"`
	Platform  []string `short:"p" help:"Target platform (repeatable), e.g. linux/amd64."`
}

// Executes the publish command.
//
// The manifest is parsed locally for early validation, then handed to the
// daemon, which snapshots the theme, builds each platform, and pushes the
// assembled index. Registry credentials stay in the daemon's environment.
func (c *PublishCmd) Run(ctx context.Context) error {
	m, err := manifest.Load(c.Manifest)
	if err != nil {
		return err
	}

	resp, err := request(protocol.CmdPublish, &protocol.PublishRequest{
		Manifest:  m,
		Variant:   c.Variant,
		Reference: c.Reference,
		Platforms: c.Platform,
	})
	if err != nil {
		return err
	}

	result, err := protocol.DecodePayload[protocol.PublishResult](resp)
	if err != nil {
		return err
	}

	for _, tag := range result.Tags {
		fmt.Printf("%s:%s\n", result.Reference, tag)
	}
	fmt.Println(result.Digest)
	return nil
}
