// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
	mcpserver "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/mcp-server"
)

var version string // set by ldflags or defaults to imported version

func init() {
	if version == "" {
		version = mcpserver.GetVersion()
	}
}

func main() {
	// stdout carries the protocol; diagnostics go to stderr as JSON lines.
	log := logger.NewMCPLogger(os.Stderr, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpserver.NewRootCommand(version, log).ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}
