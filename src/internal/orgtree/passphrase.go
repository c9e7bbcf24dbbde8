// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package orgtree

import (
	"path/filepath"
	"strings"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/secret"
)

// DefaultPassphraseFile is the passphrase file name looked up at every level.
const DefaultPassphraseFile = "passphrase.txt"

// Layout describes where passphrase files may live for one scan.
type Layout struct {
	// ScanRoot is the tree being scanned.
	ScanRoot string
	// OldRoot is the previous tree; its matching org and server directories are
	// searched too. Empty, or equal to ScanRoot, disables it.
	OldRoot string
	// OverridePath is an explicit passphrase file, searched right after the server directory.
	OverridePath string
	// EnvFallback is a passphrase file named by the environment, searched last.
	EnvFallback string
	// FileName defaults to [DefaultPassphraseFile].
	FileName string
}

func (l Layout) fileName() string {
	if l.FileName == "" {
		return DefaultPassphraseFile
	}
	return l.FileName
}

// ResolvePassphraseSources lists the passphrase files that apply to serverPath,
// most specific first:
//
//  1. the server directory
//  2. the explicit override
//  3. the organization directory
//  4. the scan root
//  5. the same server, the same organization, then the root of the old tree
//  6. the environment fallback
//
// It never touches the filesystem; the caller skips paths that do not exist.
// Duplicates are removed keeping the first occurrence.
//
// Parameters:
//   - layout: Scan layout
//   - serverPath: Server directory inside layout.ScanRoot
//
// Returns:
//   - []string: Ordered candidate passphrase files
func ResolvePassphraseSources(layout Layout, serverPath string) []string {
	name := layout.fileName()
	scanRoot := filepath.Clean(layout.ScanRoot)
	serverPath = filepath.Clean(serverPath)

	var rel []string
	if r, err := filepath.Rel(scanRoot, serverPath); err == nil && r != "." && !strings.HasPrefix(r, "..") {
		rel = strings.Split(r, string(filepath.Separator))
	}

	orgDir := scanRoot
	if len(rel) > 0 {
		orgDir = filepath.Join(scanRoot, rel[0])
	}

	sources := []string{
		filepath.Join(serverPath, name),
		layout.OverridePath,
		filepath.Join(orgDir, name),
		filepath.Join(scanRoot, name),
	}

	if layout.OldRoot != "" && filepath.Clean(layout.OldRoot) != scanRoot {
		oldRoot := filepath.Clean(layout.OldRoot)
		if len(rel) > 0 {
			sources = append(sources,
				filepath.Join(oldRoot, filepath.Join(rel...), name),
				filepath.Join(oldRoot, rel[0], name),
			)
		}
		// a (root) unit maps to the old root itself
		sources = append(sources, filepath.Join(oldRoot, name))
	}
	sources = append(sources, layout.EnvFallback)

	return dedupe(sources)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// LoadPassphrases reads every existing file of [ResolvePassphraseSources] for
// serverPath. Missing files are skipped; other read errors are returned with
// whatever was loaded.
func LoadPassphrases(layout Layout, serverPath string) ([]*secret.Passphrase, error) {
	return secret.LoadFiles(ResolvePassphraseSources(layout, serverPath))
}
