// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-cert-tree-verifier is a Model Context Protocol (MCP) server that exposes
// the certificate tree verifier to AI assistants and automation clients over stdio.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-cert-tree-verifier/cmd/x509-cert-tree-verifier@latest
//
// # Usage
//
//	x509-cert-tree-verifier [FLAGS]
//
// # Flags
//
//	--config        Path to configuration file (JSON or YAML)
//	--instructions  Print the instructions sent to MCP clients and exit
//	-v, --verbose   Log debug messages to stderr
//	--help          Show help information
//	--version       Show version information
//
// # Environment Variables
//
//	CERTTREE_CONFIG_FILE      Path to configuration file (alternative to --config)
//	CERTTREE_PASSPHRASE_FILE  Fallback passphrase file for probe_cert_file
//
// # MCP Tools
//
//	verify_cert_tree      Verify every server unit of the old and new trees
//	probe_cert_file       Describe one certificate, key or CSR file
//	resolve_intermediate  Find the intermediate that issued a leaf
//	merge_chain           Build a leaf, intermediate and root bundle
//	classify_chain        Tell a single certificate from a fullchain
//	show_chain            Display a bundle as a tree, table or JSON
//
// # Client Configuration
//
//	{
//	  "mcpServers": {
//	    "x509-cert-tree-verifier": {
//	      "command": "x509-cert-tree-verifier",
//	      "env": {"CERTTREE_CONFIG_FILE": "/etc/certtree/config.yaml"}
//	    }
//	  }
//	}
package main
