// Package server implements the docbaked daemon.
//
// The daemon listens on a Unix domain socket for JSON-encoded commands
// from the docbaked CLI. Each connection carries a single request-response
// exchange: the client sends a newline-delimited JSON envelope, the
// server dispatches the command, and writes the result back before
// closing the connection.
//
// Supported commands are building site images, publishing them to a
// registry, querying daemon status, and initiating shutdown. Builds are
// delegated to the build package and publishes to the publish package,
// both of which use the runtime package for container operations against
// containerd.
//
// Example usage:
//
//	srv, err := server.New(server.Config{
//	    ContainerdAddress:   "/run/containerd/containerd.sock",
//	    ContainerdNamespace: "docbaked",
//	})
//	if err != nil {
//	    return err
//	}
//
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//
//	srv.Wait()
package server
