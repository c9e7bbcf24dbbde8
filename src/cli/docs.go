// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface of the certificate tree verifier.
// It implements a Cobra-based CLI with these commands:
//   - verify: audit the old and new trees and print a text, table or JSON report
//   - chain resolve, classify, merge and show: work on a single certificate chain
//   - probe: print what one certificate, key or CSR file contains
//
// Configuration comes from --config or CERTTREE_CONFIG_FILE; command flags
// override it. Nothing ever prompts: passphrases come from files only.
package cli
