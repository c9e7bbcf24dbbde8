// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvConfigFile, config.EnvOldRoot, config.EnvNewRoot,
		config.EnvEngine, config.EnvOpenSSL, config.EnvWorkers,
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "./old", cfg.Roots.Old)
	assert.Equal(t, "./new", cfg.Roots.New)
	assert.Empty(t, cfg.Roots.Required)
	assert.Equal(t, "passphrase.txt", cfg.Passphrase.FileName)
	assert.Equal(t, config.DefaultPassphraseEnv, cfg.Passphrase.EnvVar)
	assert.Equal(t, x509chain.DefaultPatterns, cfg.Chain.Patterns)
	assert.Equal(t, "native", cfg.Engine.Kind)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 30, cfg.Output.WarnDays)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoad_Files(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "YAML",
			file: "certtree.yaml",
			content: `
roots: { old: /srv/old, new: /srv/new, required: [new] }
passphrase: { overridePath: /etc/pass.txt }
chain: { searchRoots: [/srv/intermediates] }
engine: { kind: openssl }
output: { format: json, warnDays: 14 }
workers: 8
`,
		},
		{
			name: "JSON",
			file: "certtree.JSON",
			content: `{
  "roots": {"old": "/srv/old", "new": "/srv/new", "required": ["new"]},
  "passphrase": {"overridePath": "/etc/pass.txt"},
  "chain": {"searchRoots": ["/srv/intermediates"]},
  "engine": {"kind": "openssl"},
  "output": {"format": "json", "warnDays": 14},
  "workers": 8
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			cfg, err := config.Load(writeConfig(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, "/srv/old", cfg.Roots.Old)
			assert.Equal(t, "/srv/new", cfg.Roots.New)
			assert.True(t, cfg.IsRequired(config.TreeNew))
			assert.False(t, cfg.IsRequired(config.TreeOld))
			assert.Equal(t, "/etc/pass.txt", cfg.Passphrase.OverridePath)
			assert.Equal(t, "passphrase.txt", cfg.Passphrase.FileName, "unset keys keep defaults")
			assert.Equal(t, []string{"/srv/intermediates"}, cfg.Chain.SearchRoots)
			assert.Equal(t, x509chain.DefaultPatterns, cfg.Chain.Patterns)
			assert.Equal(t, "openssl", cfg.Engine.Kind)
			assert.Equal(t, "openssl", cfg.Engine.OpenSSLPath)
			assert.Equal(t, "json", cfg.Output.Format)
			assert.Equal(t, 14, cfg.Output.WarnDays)
			assert.Equal(t, 8, cfg.Workers)
		})
	}
}

func TestLoad_EnvConfigFileAndOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "certtree.yml", "workers: 2\nroots: { new: /from/file }\n")
	t.Setenv(config.EnvConfigFile, path)
	t.Setenv(config.EnvNewRoot, "/from/env")
	t.Setenv(config.EnvWorkers, "6")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Roots.New)
	assert.Equal(t, 6, cfg.Workers)

	t.Setenv(config.EnvWorkers, "many")
	_, err = config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	t.Setenv(config.EnvWorkers, "0")
	_, err = config.Load("")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains []string
	}{
		{
			name:     "Unknown engine",
			content:  "engine: { kind: gnutls }\n",
			contains: []string{"engine.kind"},
		},
		{
			name:     "Several violations listed",
			content:  "output: { format: xml, warnDays: -1 }\nworkers: 0\n",
			contains: []string{"output.format", "output.warnDays", "workers"},
		},
		{
			name:     "Unknown key",
			content:  "rootz: { new: /srv }\n",
			contains: []string{"rootz"},
		},
		{
			name:     "Bad required tree",
			content:  "roots: { required: [staging] }\n",
			contains: []string{"roots.required.0"},
		},
		{
			name:     "Passphrase file name with a directory",
			content:  "passphrase: { fileName: secrets/pass.txt }\n",
			contains: []string{"passphrase.fileName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			_, err := config.Load(writeConfig(t, "certtree.yaml", tt.content))
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestLoad_ReadErrors(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, config.ErrReadConfig)

	_, err = config.Load(writeConfig(t, "broken.json", "{"))
	assert.ErrorIs(t, err, config.ErrReadConfig)

	cfg, err := config.Load(writeConfig(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
}

func TestPassphraseEnvFallback(t *testing.T) {
	cfg := config.Default()
	t.Setenv(config.DefaultPassphraseEnv, "/run/secrets/pass")
	assert.Equal(t, "/run/secrets/pass", cfg.PassphraseEnvFallback())

	cfg.Passphrase.EnvVar = ""
	assert.Empty(t, cfg.PassphraseEnvFallback())
}
