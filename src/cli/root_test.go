// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/cli"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/orgtree"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/testpki"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

const version = "1.3.3.7-testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvConfigFile, config.EnvOldRoot, config.EnvNewRoot,
		config.EnvEngine, config.EnvOpenSSL, config.EnvWorkers,
		config.DefaultPassphraseEnv,
	} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand(version, logger.Discard())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// pki is a root, an intermediate and two leaves written under a temp dir:
//
//	base/new/acme/web01/  server.crt, server.key          -> OK
//	base/new/acme/web02/  server.crt, foreign server.key  -> NG (only with withNG)
//	base/intermediates/intermediate.crt
type pki struct {
	base      string
	interPath string
	inter     *testpki.Issued
	leaf      *testpki.Issued
	leafPath  string
}

func newPKI(t *testing.T, withNG bool) pki {
	t.Helper()
	base := t.TempDir()
	root := testpki.NewRoot(t, "Root-R")
	inter := testpki.NewIntermediate(t, "Intermediate-X", root)

	key := testpki.RSAKey(t, 0)
	leaf := testpki.NewLeaf(t, "web01.acme.test", inter, key)
	newRoot := filepath.Join(base, "new")
	leafPath := testpki.WriteFile(t, newRoot, "acme/web01/server.crt", leaf.PEM)
	testpki.WriteFile(t, newRoot, "acme/web01/server.key", testpki.KeyPEM(t, key))

	if withNG {
		other := testpki.NewLeaf(t, "web02.acme.test", inter, testpki.RSAKey(t, 1))
		testpki.WriteFile(t, newRoot, "acme/web02/server.crt", other.PEM)
		testpki.WriteFile(t, newRoot, "acme/web02/server.key", testpki.KeyPEM(t, testpki.RSAKey(t, 2)))
	}

	interPath := testpki.WriteFile(t, base, "intermediates/intermediate.crt", inter.PEM)
	return pki{base: base, interPath: interPath, inter: inter, leaf: leaf, leafPath: leafPath}
}

func (p pki) treeArgs(extra ...string) []string {
	return append([]string{
		"verify",
		"--old", filepath.Join(p.base, "old"),
		"--new", filepath.Join(p.base, "new"),
		"--search", filepath.Join(p.base, "intermediates"),
		"--no-color",
	}, extra...)
}

func TestVersion(t *testing.T) {
	clearEnv(t)
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}

func TestVerify(t *testing.T) {
	t.Run("All OK", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		out, err := run(t, p.treeArgs()...)
		require.NoError(t, err)
		assert.Contains(t, out, "[OK] acme/web01 (1 comparisons)")
		assert.Contains(t, out, "resolved (single-cert-needs-merge) via "+p.interPath)
		assert.Contains(t, out, "== old: "+filepath.Join(p.base, "old")+" (not found, skipped) ==")
		assert.Contains(t, out, "Total: 1  OK: 1  NG: 0  Insufficient: 0")
	})

	t.Run("NG fails with JSON report and metrics", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, true)
		metricsFile := filepath.Join(t.TempDir(), "certtree.prom")

		out, err := run(t, p.treeArgs("--format", "json", "--metrics-file", metricsFile, "--workers", "2")...)
		require.ErrorIs(t, err, verify.ErrVerificationFailed)
		assert.Contains(t, err.Error(), "1 of 2 server units are NG")

		var decoded struct {
			Totals struct {
				Servers int `json:"servers"`
				OK      int `json:"ok"`
				NG      int `json:"ng"`
			} `json:"totals"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Equal(t, 2, decoded.Totals.Servers)
		assert.Equal(t, 1, decoded.Totals.OK)
		assert.Equal(t, 1, decoded.Totals.NG)

		raw, err := os.ReadFile(metricsFile)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `certtree_server_units{tree="new",verdict="NG"} 1`)
	})

	t.Run("Table format", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		out, err := run(t, p.treeArgs("--format", "table")...)
		require.NoError(t, err)
		assert.Contains(t, out, "web01")
		assert.Contains(t, out, "Total: 1  OK: 1  NG: 0  Insufficient: 0")
	})

	t.Run("Missing required tree aborts", func(t *testing.T) {
		clearEnv(t)
		cfgPath := testpki.WriteFile(t, t.TempDir(), "certtree.yaml", []byte("roots: { required: [new] }\n"))

		_, err := run(t, "verify", "--config", cfgPath, "--new", filepath.Join(t.TempDir(), "absent"), "--old", filepath.Join(t.TempDir(), "absent"))
		assert.ErrorIs(t, err, orgtree.ErrRootNotFound)
	})

	t.Run("Invalid flag values", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		_, err := run(t, p.treeArgs("--format", "xml")...)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)

		_, err = run(t, p.treeArgs("--workers", "0")...)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)

		_, err = run(t, p.treeArgs("--engine", "gnutls")...)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)

		_, err = run(t, "probe", p.leafPath, "--engine", "gnutls")
		assert.ErrorIs(t, err, x509engine.ErrUnknownEngine)
	})

	t.Run("Unexpected argument", func(t *testing.T) {
		clearEnv(t)
		_, err := run(t, "verify", "extra")
		assert.Error(t, err)
	})
}

func TestChain(t *testing.T) {
	t.Run("Resolve from search root", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		out, err := run(t, "chain", "resolve", p.leafPath, "--search", filepath.Join(p.base, "intermediates"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, p.interPath+"\t"), out)
		assert.Contains(t, out, "CN=Intermediate-X")
	})

	t.Run("Resolve without candidates", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		_, err := run(t, "chain", "resolve", p.leafPath)
		assert.ErrorIs(t, err, x509chain.ErrNoMatch)
	})

	t.Run("Classify", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)
		full := testpki.WriteFile(t, t.TempDir(), "fullchain.pem", append(append([]byte{}, p.leaf.PEM...), p.inter.PEM...))

		out, err := run(t, "chain", "classify", full)
		require.NoError(t, err)
		assert.Equal(t, "fullchain-guess\n", out)

		out, err = run(t, "chain", "classify", p.leafPath)
		require.NoError(t, err)
		assert.Equal(t, "single-cert-needs-merge\n", out)
	})

	t.Run("Merge auto", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)
		outPath := filepath.Join(t.TempDir(), "bundle.pem")

		_, err := run(t, "chain", "merge", p.leafPath, "--intermediate", "auto",
			"--search", filepath.Join(p.base, "intermediates"), "-o", outPath)
		require.NoError(t, err)

		bundle, err := os.ReadFile(outPath)
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(string(bundle), "-----BEGIN CERTIFICATE-----"))
		assert.Equal(t, x509chain.FullchainGuess, x509chain.ClassifyBytes(bundle))
	})

	t.Run("Merge explicit with skip", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		merged, err := run(t, "chain", "merge", p.leafPath, "--intermediate", p.interPath)
		require.NoError(t, err)
		full := testpki.WriteFile(t, t.TempDir(), "fullchain.pem", []byte(merged))

		again, err := run(t, "chain", "merge", full, "--intermediate", "auto", "--skip-if-merged")
		require.NoError(t, err)
		assert.Equal(t, merged, again, "an already merged leaf is kept as is")
	})

	t.Run("Merge requires an intermediate", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		_, err := run(t, "chain", "merge", p.leafPath)
		assert.Error(t, err)

		_, err = run(t, "chain", "merge", p.leafPath, "--intermediate", p.leafPath+".missing")
		assert.Error(t, err)
	})

	t.Run("Show", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)
		full := testpki.WriteFile(t, t.TempDir(), "fullchain.pem", append(append([]byte{}, p.leaf.PEM...), p.inter.PEM...))

		out, err := run(t, "chain", "show", full)
		require.NoError(t, err)
		assert.Contains(t, out, "[✓] web01.acme.test")

		out, err = run(t, "chain", "show", full, "--view", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "Intermediate CA Certificate")

		out, err = run(t, "chain", "show", full, "--view", "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"chainLength": 2`)
		assert.Contains(t, out, `"hasRoot": false`)

		p7b := testpki.WriteFile(t, t.TempDir(), "chain.p7b", testpki.PKCS7(t, p.leaf, p.inter))
		out, err = run(t, "chain", "show", p7b, "--view", "pem")
		require.NoError(t, err)
		assert.Equal(t, string(p.leaf.PEM)+string(p.inter.PEM), out)

		_, err = run(t, "chain", "show", full, "--view", "svg")
		assert.ErrorIs(t, err, cli.ErrUnknownView)
	})
}

func TestProbe(t *testing.T) {
	t.Run("Encrypted key", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		key := testpki.RSAKey(t, 0)
		keyPath := testpki.WriteFile(t, dir, "server.key", testpki.EncryptedPKCS8PEM(t, key, "s3cret"))
		passPath := testpki.WriteFile(t, dir, "passphrase.txt", []byte("nope\ns3cret\n"))

		out, err := run(t, "probe", keyPath, "--passphrase-file", passPath)
		require.NoError(t, err)
		assert.Contains(t, out, `"kind": "key"`)
		assert.Contains(t, out, `"decryptedWith": "`+passPath+`"`)
		assert.Contains(t, out, `"attempts": 2`)
		assert.NotContains(t, out, "s3cret")
	})

	t.Run("Passphrase from environment", func(t *testing.T) {
		clearEnv(t)
		dir := t.TempDir()
		key := testpki.RSAKey(t, 1)
		keyPath := testpki.WriteFile(t, dir, "server.key", testpki.EncryptedPKCS8PEM(t, key, "envpass"))
		t.Setenv(config.DefaultPassphraseEnv, testpki.WriteFile(t, dir, "env.txt", []byte("envpass\n")))

		out, err := run(t, "probe", keyPath)
		require.NoError(t, err)
		assert.Contains(t, out, `"attempts": 1`)
	})

	t.Run("Certificate", func(t *testing.T) {
		clearEnv(t)
		p := newPKI(t, false)

		out, err := run(t, "probe", p.leafPath)
		require.NoError(t, err)
		assert.Contains(t, out, `"kind": "certificate"`)
		assert.Contains(t, out, `"fingerprint": "RSA:`)
	})

	t.Run("Not a target file", func(t *testing.T) {
		clearEnv(t)
		path := testpki.WriteFile(t, t.TempDir(), "notes.txt", []byte("hello"))

		_, err := run(t, "probe", path)
		assert.Error(t, err)
	})
}
