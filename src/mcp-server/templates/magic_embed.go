// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.md
var embeddedFS embed.FS

// EmbedFS is the read-only view of the embedded templates. It abstracts
// [embed.FS] so callers can substitute their own files in tests.
//
// Implementations must be safe for concurrent use.
type EmbedFS interface {
	ReadFile(name string) ([]byte, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	Open(name string) (fs.File, error)
}

type embedFS struct{ fs embed.FS }

func (e *embedFS) ReadFile(name string) ([]byte, error)       { return e.fs.ReadFile(name) }
func (e *embedFS) ReadDir(name string) ([]fs.DirEntry, error) { return e.fs.ReadDir(name) }
func (e *embedFS) Open(name string) (fs.File, error)          { return e.fs.Open(name) }

// MagicEmbed is the embedded filesystem holding the server templates.
//
// Example usage:
//
//	templateBytes, err := templates.MagicEmbed.ReadFile("X509_instructions.md")
//	if err != nil {
//		return "", fmt.Errorf("failed to load instructions template: %w", err)
//	}
var MagicEmbed EmbedFS = &embedFS{fs: embeddedFS}
