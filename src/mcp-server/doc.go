// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver exposes the certificate tree verifier as a Model Context
// Protocol ([MCP]) server over stdio.
//
// Tools:
//   - verify_cert_tree: Full verification of the old and new trees; NG units are
//     reported in the result, not as tool errors
//   - probe_cert_file: One certificate, key or CSR file as JSON
//   - resolve_intermediate, merge_chain: Chain resolution and bundling
//   - classify_chain, show_chain: Bundle inspection
//
// Servers are assembled with [ServerBuilder]; [NewRootCommand] wraps [Run] in
// a cobra command with a [gopls-style] --instructions flag.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
// [gopls-style]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
package mcpserver
