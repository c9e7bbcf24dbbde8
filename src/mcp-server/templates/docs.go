// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates embeds the markdown templates of the MCP server.
//
// [MagicEmbed] is the default [EmbedFS]. X509_instructions.md is a
// [text/template] rendered with the registered tools and sent to clients
// during initialization.
//
// Example usage:
//
//	import "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/mcp-server/templates"
//
//	raw, err := templates.MagicEmbed.ReadFile("X509_instructions.md")
//	if err != nil {
//		return fmt.Errorf("failed to read instructions: %w", err)
//	}
package templates
