// Package protocol defines the wire format spoken over the daemon's Unix
// socket. Messages are newline-delimited JSON envelopes carrying a command
// name and an optional payload.
package protocol
