package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/docbake/docbaked/internal"
	"github.com/docbake/docbaked/internal/build"
	"github.com/docbake/docbaked/internal/protocol"
	"github.com/docbake/docbaked/internal/publish"
)

// Handles a build command.
//
// Receives a resolved recipe from the CLI and executes it against the
// container runtime.
func (s *Server) handleBuild(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.BuildRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	result, err := build.Run(ctx, s.runtime, build.Options{
		Recipe:    req.Recipe,
		Resource:  req.Resource,
		Output:    req.Output,
		Root:      req.Root,
		Platforms: req.Platforms,
	})
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.mu.Lock()
	s.builds++
	s.mu.Unlock()

	s.respond(conn, protocol.CmdOK, &protocol.BuildResult{Outputs: result.Outputs})
}

// Handles a publish command.
//
// Receives the site manifest and registry reference from the CLI and runs
// the full publish pipeline. Registry credentials are read from the
// daemon's environment, never from the wire.
func (s *Server) handlePublish(ctx context.Context, conn net.Conn, payload json.RawMessage) {
	req, err := protocol.DecodePayload[protocol.PublishRequest](payload)
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	creds, themeToken := publish.CredentialsFromEnv()

	result, err := publish.Run(ctx, s.runtime, publish.Options{
		Manifest:    req.Manifest,
		Variant:     req.Variant,
		Reference:   req.Reference,
		Platforms:   req.Platforms,
		Credentials: creds,
		ThemeToken:  themeToken,
	})
	if err != nil {
		s.respond(conn, protocol.CmdError, &protocol.ErrorResult{Message: err.Error()})
		return
	}

	s.mu.Lock()
	s.publishes++
	s.mu.Unlock()

	s.respond(conn, protocol.CmdOK, &protocol.PublishResult{
		Reference: result.Reference,
		Tags:      result.Tags,
		Digest:    result.Digest,
	})
}

// Handles a status command.
func (s *Server) handleStatus(conn net.Conn) {
	s.mu.Lock()
	builds := s.builds
	publishes := s.publishes
	s.mu.Unlock()

	uptime := time.Since(s.startedAt).Truncate(time.Second)

	s.respond(conn, protocol.CmdOK, &protocol.StatusResult{
		Running:   true,
		Version:   internal.VersionString(),
		Pid:       os.Getpid(),
		Uptime:    uptime.String(),
		Builds:    builds,
		Publishes: publishes,
	})
}

// Handles a shutdown command.
func (s *Server) handleShutdown(conn net.Conn) {
	s.respond(conn, protocol.CmdOK, nil)
	slog.Info("shutdown requested")

	go func() {
		s.Stop()
	}()
}
