// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultExecutableName is used when os.Args[0] is unavailable.
const DefaultExecutableName = "tls-cert-tree-verifier"

// GetExecutableName returns the executable name without extension, cross-platform compatible.
//
// Returns:
//   - string: Clean executable name suitable for CLI usage
func GetExecutableName() string {
	if len(os.Args) == 0 {
		return DefaultExecutableName
	}
	return executableName(os.Args[0])
}

func executableName(arg0 string) string {
	if arg0 == "" {
		return DefaultExecutableName
	}

	name := filepath.Base(arg0)

	// A Windows path seen on Unix (or the reverse) still has separators after Base.
	if strings.ContainsAny(name, `/\`) {
		parts := strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' })
		if len(parts) > 0 {
			name = parts[len(parts)-1]
		}
	}

	return strings.TrimSuffix(name, ".exe")
}

// IsHidden reports whether a file or directory name starts with a dot.
// "." and ".." are not names a directory listing returns.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
