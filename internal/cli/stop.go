package cli

import (
	"context"
	"fmt"

	"github.com/docbake/docbaked/internal/protocol"
)

// Represents the 'docbaked stop' command.
type StopCmd struct{}

// Executes the stop command, asking the running daemon to shut down.
func (c *StopCmd) Run(ctx context.Context) error {
	if _, err := request(protocol.CmdShutdown, nil); err != nil {
		return err
	}

	fmt.Println("daemon stopping")
	return nil
}
