// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix provides [POSIX]-style helpers shared by the CLI and the tree walker.
//
// Key functions:
//   - GetExecutableName: Returns the executable name without extension for CLI usage
//   - IsHidden: Reports dot-files and dot-directories, which a tree walk skips
//
// Cross-Platform Behavior:
//
//   - Linux/macOS: "/usr/bin/tls-cert-tree-verifier" → "tls-cert-tree-verifier"
//   - Windows: "C:\bin\tls-cert-tree-verifier.exe" → "tls-cert-tree-verifier"
//   - Fallback: Empty args → [DefaultExecutableName]
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix
