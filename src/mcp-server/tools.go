// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createTools returns every MCP tool definition with its handler.
// Only classify_chain works on raw bytes and needs no configuration; the rest
// take the engine, passphrase and chain search settings from the server configuration.
//
// Returns:
//   - A slice of ToolDefinition for tools without config dependencies
//   - A slice of ToolDefinitionWithConfig for tools that require server configuration
//
// The function defines the following tools:
//   - classify_chain: Tells a single certificate from a fullchain bundle
//   - verify_cert_tree: Verifies every server unit of the old and new trees
//   - probe_cert_file: Describes one certificate, key or CSR file
//   - resolve_intermediate: Finds the intermediate that issued a leaf
//   - merge_chain: Builds a leaf, intermediate and root bundle
//   - show_chain: Displays the certificates of a bundle and their issuer links
func createTools() ([]ToolDefinition, []ToolDefinitionWithConfig) {
	tools := []ToolDefinition{
		{
			Tool: mcp.NewTool("classify_chain",
				mcp.WithDescription("Tell whether a certificate file holds a single certificate or a fullchain bundle"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Certificate file path"),
				),
			),
			Handler: handleClassifyChain,
			Role:    "chainClassifier",
		},
	}

	toolsWithConfig := []ToolDefinitionWithConfig{
		{
			Tool: mcp.NewTool("verify_cert_tree",
				mcp.WithDescription("Verify that the certificates, private keys and CSRs of every server unit in the old and new trees belong together"),
				mcp.WithString("old_root",
					mcp.Description("Old tree root (default: from server configuration)"),
				),
				mcp.WithString("new_root",
					mcp.Description("New tree root (default: from server configuration)"),
				),
				mcp.WithString("format",
					mcp.Description("Report format: 'text', 'table', or 'json' (default: json)"),
					mcp.DefaultString("json"),
				),
				mcp.WithString("passphrase_file",
					mcp.Description("Passphrase file tried before the per-organization files"),
				),
			),
			Handler: handleVerifyCertTree,
			Role:    "treeVerifier",
		},
		{
			Tool: mcp.NewTool("probe_cert_file",
				mcp.WithDescription("Describe a certificate, private key or CSR file: subject, issuer, validity and public key fingerprint"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("File path"),
				),
				mcp.WithString("passphrase_file",
					mcp.Description("Passphrase file for an encrypted private key, one passphrase per line"),
				),
			),
			Handler: handleProbeCertFile,
			Role:    "fileProber",
		},
		{
			Tool: mcp.NewTool("resolve_intermediate",
				mcp.WithDescription("Find the intermediate certificate whose subject equals the issuer of a leaf certificate"),
				mcp.WithString("leaf",
					mcp.Required(),
					mcp.Description("Leaf certificate file path"),
				),
				mcp.WithString("search_roots",
					mcp.Description("Comma-separated directories searched after the leaf's own directory (default: from server configuration)"),
				),
			),
			Handler: handleResolveIntermediate,
			Role:    "intermediateResolver",
		},
		{
			Tool: mcp.NewTool("merge_chain",
				mcp.WithDescription("Concatenate a leaf, its intermediate and an optional root into one PEM bundle"),
				mcp.WithString("leaf",
					mcp.Required(),
					mcp.Description("Leaf certificate file path"),
				),
				mcp.WithString("intermediate",
					mcp.Description("Intermediate certificate file path, or 'auto' to resolve it (default: auto)"),
					mcp.DefaultString(autoIntermediate),
				),
				mcp.WithString("root",
					mcp.Description("Root certificate file path appended last"),
				),
				mcp.WithBoolean("skip_if_merged",
					mcp.Description("Return a leaf that already holds a chain unchanged (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: handleMergeChain,
			Role:    "chainMerger",
		},
		{
			Tool: mcp.NewTool("show_chain",
				mcp.WithDescription("Display the certificates of a PEM, DER or PKCS#7 file and whether each is signed by the next"),
				mcp.WithString("path",
					mcp.Required(),
					mcp.Description("Certificate file path"),
				),
				mcp.WithString("view",
					mcp.Description("View: 'tree', 'table', 'json', or 'pem' (default: tree)"),
					mcp.DefaultString("tree"),
				),
			),
			Handler: handleShowChain,
			Role:    "chainViewer",
		},
	}

	return tools, toolsWithConfig
}
