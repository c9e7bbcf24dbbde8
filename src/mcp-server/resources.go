// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
)

// Resource URIs served by [createResources].
const (
	configResourceURI  = "config://active"
	versionResourceURI = "info://version"
)

// createResources returns the static resources. The configuration resource
// shows the configuration the server runs with.
func createResources(cfg *config.Config) []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource(configResourceURI, "Active configuration",
				mcp.WithResourceDescription("Configuration the verifier tools run with, after file and environment overrides"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				return jsonResource(configResourceURI, cfg)
			},
		},
		{
			Resource: mcp.NewResource(versionResourceURI, "Server version",
				mcp.WithResourceDescription("Server name, version and tool names"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: handleVersionResource,
		},
	}
}

// handleVersionResource reports the server name, version and tools.
func handleVersionResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tools, toolsWithConfig := createTools()
	names := make([]string, 0, len(tools)+len(toolsWithConfig))
	for _, t := range tools {
		names = append(names, t.Tool.Name)
	}
	for _, t := range toolsWithConfig {
		names = append(names, t.Tool.Name)
	}

	return jsonResource(versionResourceURI, map[string]any{
		"name":    serverName,
		"version": GetVersion(),
		"tools":   names,
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(raw),
		},
	}, nil
}
