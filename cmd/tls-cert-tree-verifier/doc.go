// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// tls-cert-tree-verifier checks that the certificates, private keys and
// certificate signing requests deployed for every server belong together.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/tls-cert-tree-verifier/cmd/tls-cert-tree-verifier@latest
//
// # Layout
//
// Two trees are scanned, old/ and new/ by default. Each holds one directory
// per organization, and each organization either one directory per server or
// the files themselves:
//
//	new/acme/web01/server.crt
//	new/acme/web01/server.key
//	new/acme/web01/server.csr
//	new/acme/passphrase.txt
//	new/globex/server.crt
//
// # Commands
//
//	verify                    Verify every server unit of both trees
//	chain resolve LEAF        Find the intermediate that issued LEAF
//	chain classify FILE       Tell a single certificate from a fullchain
//	chain merge LEAF          Build a leaf, intermediate and root bundle
//	chain show FILE           Display a bundle as a tree, table or JSON
//	probe FILE                Print what a certificate, key or CSR holds
//
// # Examples
//
// Verify both trees and write Prometheus metrics:
//
//	tls-cert-tree-verifier verify --old ./old --new ./new --metrics-file /var/lib/node_exporter/certtree.prom
//
// Build a fullchain, resolving the intermediate from a shared directory:
//
//	tls-cert-tree-verifier chain merge new/acme/web01/server.crt --intermediate auto --search ./intermediates -o fullchain.pem
//
// # Exit Status
//
// 0 when every server unit is OK or Insufficient, 1 when any unit is NG or a
// structural error stops the run, 130 when interrupted.
package main
