// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/version"
)

var appVersion = version.Version // default version

// GetVersion returns the version the server reports, as set by the last [Run].
func GetVersion() string {
	return appVersion
}

// Run serves the verifier tools over stdio until ctx is cancelled or the
// client closes its end.
//
// Parameters:
//   - ctx: Cancelling ctx shuts the server down and aborts running verifications
//   - version: Version reported during the handshake
//   - configFile: Configuration file; empty means [config.EnvConfigFile], then defaults
//   - in, out: Protocol streams, normally os.Stdin and os.Stdout
//   - log: Logger for diagnostics; it must not write to out
//
// Returns:
//   - error: Configuration, build or transport error; ctx.Err() after cancellation
func Run(ctx context.Context, version, configFile string, in io.Reader, out io.Writer, log logger.Logger) error {
	appVersion = version

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	s, err := newServer(cfg, version, log)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.NewStdioServer(s).Listen(ctx, in, out)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}

// newServer builds the server with every default tool, resource and prompt.
func newServer(cfg *config.Config, version string, log logger.Logger) (*server.MCPServer, error) {
	tools, toolsWithConfig := createTools()
	instructions, err := loadInstructions(tools, toolsWithConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructions: %w", err)
	}

	s, err := NewServerBuilder().
		WithConfig(cfg).
		WithLogger(log).
		WithVersion(version).
		WithTools(tools...).
		WithToolsWithConfig(toolsWithConfig...).
		WithResources(createResources(cfg)...).
		WithPrompts(createPrompts()...).
		WithInstructions(instructions).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build server: %w", err)
	}
	return s, nil
}
