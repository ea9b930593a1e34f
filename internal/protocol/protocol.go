package protocol

import (
	"encoding/json"

	"go.trai.ch/zerr"
)

// Raised when a message cannot be encoded or decoded.
var ErrProtocol = zerr.New("protocol error")

// Identifies a protocol message type.
type Command string

const (
	// Requests sent by the client.
	CmdBuild    Command = "build"
	CmdPublish  Command = "publish"
	CmdStatus   Command = "status"
	CmdShutdown Command = "shutdown"

	// Responses sent by the daemon.
	CmdOK    Command = "ok"
	CmdError Command = "error"
)

// Lifecycle state of a container as reported by the runtime.
type ContainerState string

const (
	ContainerRunning    ContainerState = "running"
	ContainerStopped    ContainerState = "stopped"
	ContainerNotCreated ContainerState = "not-created"
)

// Outer wrapper for every message on the wire.
type Envelope struct {
	Command Command         `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Serializes a command and payload into an envelope.
//
// A nil payload produces an envelope without a payload field.
func Encode(cmd Command, payload any) ([]byte, error) {
	env := Envelope{Command: cmd}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, zerr.Wrap(ErrProtocol, err.Error())
		}
		env.Payload = data
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, zerr.Wrap(ErrProtocol, err.Error())
	}
	return data, nil
}

// Parses an envelope from raw bytes, returning it together with the
// undecoded payload. The payload is decoded separately by [DecodePayload]
// once the command is known.
func Decode(data []byte) (*Envelope, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, zerr.Wrap(ErrProtocol, err.Error())
	}
	if env.Command == "" {
		return nil, nil, zerr.Wrap(ErrProtocol, "missing command")
	}
	return &env, env.Payload, nil
}

// Decodes an envelope payload into a concrete request or result type.
func DecodePayload[T any](payload json.RawMessage) (*T, error) {
	if len(payload) == 0 {
		return nil, zerr.Wrap(ErrProtocol, "missing payload")
	}

	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, zerr.Wrap(ErrProtocol, err.Error())
	}
	return &v, nil
}
