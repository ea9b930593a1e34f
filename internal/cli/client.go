package cli

import (
	"bufio"
	"encoding/json"
	"net"

	"go.trai.ch/zerr"

	"github.com/docbake/docbaked/internal/paths"
	"github.com/docbake/docbaked/internal/protocol"
)

// Raised when the daemon cannot be reached or reports a failure.
var ErrDaemon = zerr.New("daemon request failed")

// Performs a single request-response exchange with the daemon.
//
// Dials the Unix socket, writes one newline-delimited envelope, and reads
// the response. A CmdError response is surfaced as an error carrying the
// daemon's message.
func request(cmd protocol.Command, payload any) (json.RawMessage, error) {
	socketPath := RootCmd.Socket
	if socketPath == "" {
		socketPath = paths.Socket()
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(ErrDaemon, "is the daemon running?"), "socket", socketPath)
	}
	defer conn.Close()

	data, err := protocol.Encode(cmd, payload)
	if err != nil {
		return nil, err
	}
	data = append(data, byte(10))

	if _, err := conn.Write(data); err != nil {
		return nil, zerr.Wrap(ErrDaemon, err.Error())
	}

	line, err := bufio.NewReader(conn).ReadBytes(byte(10))
	if err != nil {
		return nil, zerr.Wrap(ErrDaemon, err.Error())
	}

	env, resp, err := protocol.Decode(line)
	if err != nil {
		return nil, err
	}

	if env.Command == protocol.CmdError {
		result, err := protocol.DecodePayload[protocol.ErrorResult](resp)
		if err != nil {
			return nil, zerr.Wrap(ErrDaemon, err.Error())
		}
		return nil, zerr.Wrap(ErrDaemon, result.Message)
	}

	return resp, nil
}
