package cli

import (
	"context"
	"fmt"

	"github.com/docbake/docbaked/internal/protocol"
)

// Represents the 'docbaked status' command.
type StatusCmd struct{}

// Executes the status command, querying the running daemon.
func (c *StatusCmd) Run(ctx context.Context) error {
	resp, err := request(protocol.CmdStatus, nil)
	if err != nil {
		return err
	}

	result, err := protocol.DecodePayload[protocol.StatusResult](resp)
	if err != nil {
		return err
	}

	fmt.Printf("version:   %s\n", result.Version)
	fmt.Printf("pid:       %d\n", result.Pid)
	fmt.Printf("uptime:    %s\n", result.Uptime)
	fmt.Printf("builds:    %d\n", result.Builds)
	fmt.Printf("publishes: %d\n", result.Publishes)
	return nil
}
