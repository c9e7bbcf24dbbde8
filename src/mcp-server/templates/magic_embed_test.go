// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates_test

import (
	"io"
	"sync"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/mcp-server/templates"
)

func TestMagicEmbed(t *testing.T) {
	t.Run("ReadFile", func(t *testing.T) {
		tests := []struct {
			name     string
			filename string
			wantErr  bool
		}{
			{"instructions template", "X509_instructions.md", false},
			{"non-existent file", "non-existent.md", true},
			{"path outside the root", "../invalid.md", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data, err := templates.MagicEmbed.ReadFile(tt.filename)
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Contains(t, string(data), "# X509 Certificate Tree Verifier")
			})
		}
	})

	t.Run("ReadDir", func(t *testing.T) {
		entries, err := templates.MagicEmbed.ReadDir(".")
		require.NoError(t, err)

		var names []string
		for _, e := range entries {
			assert.False(t, e.IsDir(), e.Name())
			names = append(names, e.Name())
		}
		assert.Contains(t, names, "X509_instructions.md")

		_, err = templates.MagicEmbed.ReadDir("non-existent")
		assert.Error(t, err)
	})

	t.Run("Open", func(t *testing.T) {
		f, err := templates.MagicEmbed.Open("X509_instructions.md")
		require.NoError(t, err)
		defer f.Close()

		info, err := f.Stat()
		require.NoError(t, err)
		assert.False(t, info.IsDir())

		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.EqualValues(t, info.Size(), len(data))
	})

	t.Run("Instructions parse as a template", func(t *testing.T) {
		data, err := templates.MagicEmbed.ReadFile("X509_instructions.md")
		require.NoError(t, err)
		_, err = template.New("instructions").Parse(string(data))
		assert.NoError(t, err)
	})

	t.Run("Concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 8 {
			wg.Go(func() {
				_, err := templates.MagicEmbed.ReadFile("X509_instructions.md")
				assert.NoError(t, err)
			})
		}
		wg.Wait()
	})
}
