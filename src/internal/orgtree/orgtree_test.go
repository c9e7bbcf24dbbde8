// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package orgtree_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/orgtree"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/secret"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/testpki"
)

func names[T any](units []T, name func(T) string) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, name(u))
	}
	return out
}

func orgName(o orgtree.OrgUnit) string       { return o.Name }
func serverName(s orgtree.ServerUnit) string { return s.Name }

func TestEnumerateOrgs(t *testing.T) {
	t.Run("Missing root", func(t *testing.T) {
		_, err := orgtree.EnumerateOrgs(filepath.Join(t.TempDir(), "missing"))
		assert.ErrorIs(t, err, orgtree.ErrRootNotFound)
	})

	t.Run("Root is a file", func(t *testing.T) {
		path := testpki.WriteFile(t, t.TempDir(), "server.crt", []byte("x"))
		_, err := orgtree.EnumerateOrgs(path)
		assert.ErrorIs(t, err, orgtree.ErrRootNotFound)
	})

	t.Run("Root pseudo-unit first, hidden ignored", func(t *testing.T) {
		root := t.TempDir()
		testpki.WriteFile(t, root, "zeta/web/server.crt", []byte("x"))
		testpki.WriteFile(t, root, "acme/web/server.crt", []byte("x"))
		testpki.WriteFile(t, root, ".git/config", []byte("x"))
		testpki.WriteFile(t, root, "LOOSE.CRT", []byte("x"))

		orgs, err := orgtree.EnumerateOrgs(root)
		require.NoError(t, err)
		assert.Equal(t, []string{orgtree.RootUnitName, "acme", "zeta"}, names(orgs, orgName))
		assert.Equal(t, root, orgs[0].Path)
		assert.Equal(t, filepath.Join(root, "acme"), orgs[1].Path)
	})

	t.Run("Non-target files do not create a root unit", func(t *testing.T) {
		root := t.TempDir()
		testpki.WriteFile(t, root, "README.md", []byte("x"))
		testpki.WriteFile(t, root, "passphrase.txt", []byte("x"))
		require.NoError(t, os.Mkdir(filepath.Join(root, "acme"), 0o755))

		orgs, err := orgtree.EnumerateOrgs(root)
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, names(orgs, orgName))
	})
}

func TestEnumerateServers(t *testing.T) {
	root := t.TempDir()
	testpki.WriteFile(t, root, "nested/web02/server.crt", []byte("x"))
	testpki.WriteFile(t, root, "nested/web01/server.crt", []byte("x"))
	testpki.WriteFile(t, root, "flat/server.crt", []byte("x"))
	testpki.WriteFile(t, root, "mixed/loose.key", []byte("x"))
	testpki.WriteFile(t, root, "mixed/web01/server.crt", []byte("x"))
	testpki.WriteFile(t, root, "mixed/.hidden/server.crt", []byte("x"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

	tests := []struct {
		org  string
		want []string
	}{
		{"nested", []string{"web01", "web02"}},
		{"flat", []string{orgtree.RootUnitName}},
		{"mixed", []string{orgtree.RootUnitName, "web01"}},
		{"empty", []string{orgtree.RootUnitName}},
	}

	for _, tt := range tests {
		t.Run(tt.org, func(t *testing.T) {
			servers, err := orgtree.EnumerateServers(orgtree.OrgUnit{Name: tt.org, Path: filepath.Join(root, tt.org)})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(servers, serverName))
		})
	}

	t.Run("Root org has only its root server", func(t *testing.T) {
		servers, err := orgtree.EnumerateServers(orgtree.OrgUnit{Name: orgtree.RootUnitName, Path: root})
		require.NoError(t, err)
		require.Len(t, servers, 1)
		assert.Equal(t, orgtree.RootUnitName, servers[0].Name)
		assert.Equal(t, root, servers[0].Path)
	})
}

func TestLoadServerFiles(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	key := testpki.RSAKey(t, 0)
	leaf := testpki.NewLeaf(t, "www.example.com", root, key)

	dir := t.TempDir()
	testpki.WriteFile(t, dir, "server.crt", leaf.PEM)
	testpki.WriteFile(t, dir, "b.cer", leaf.PEM)
	testpki.WriteFile(t, dir, "fullchain.pem", append(append([]byte{}, leaf.PEM...), root.PEM...))
	testpki.WriteFile(t, dir, "privkey.pem", testpki.KeyPEM(t, key))
	testpki.WriteFile(t, dir, "server.KEY", testpki.RSAKeyPEM(key))
	testpki.WriteFile(t, dir, "request.pem", testpki.CSRPEM(t, "www.example.com", key))
	testpki.WriteFile(t, dir, "server.csr", testpki.CSRPEM(t, "www.example.com", key))
	testpki.WriteFile(t, dir, "notes.txt", []byte("x"))
	testpki.WriteFile(t, dir, "passphrase.txt", []byte("x"))
	testpki.WriteFile(t, dir, "sub/ignored.crt", leaf.PEM)

	server := orgtree.ServerUnit{Name: "web01", Path: dir}
	require.NoError(t, orgtree.LoadServerFiles(&server))

	join := func(names ...string) []string {
		out := make([]string, 0, len(names))
		for _, n := range names {
			out = append(out, filepath.Join(dir, n))
		}
		return out
	}
	assert.Equal(t, join("b.cer", "fullchain.pem", "server.crt"), server.Certificates)
	assert.Equal(t, join("privkey.pem", "server.KEY"), server.Keys)
	assert.Equal(t, join("request.pem", "server.csr"), server.CSRs)
	assert.False(t, server.IsEmpty())

	empty := orgtree.ServerUnit{Path: t.TempDir()}
	require.NoError(t, orgtree.LoadServerFiles(&empty))
	assert.True(t, empty.IsEmpty())
}

func TestLoadOrg(t *testing.T) {
	root := t.TempDir()
	testpki.WriteFile(t, root, "acme/web01/server.crt", []byte("x"))
	testpki.WriteFile(t, root, "acme/web01/server.key", []byte("x"))
	testpki.WriteFile(t, root, "acme/web02/server.csr", []byte("x"))

	org := orgtree.OrgUnit{Name: "acme", Path: filepath.Join(root, "acme")}
	require.NoError(t, orgtree.LoadOrg(&org))
	require.Len(t, org.Servers, 2)
	assert.Equal(t, []string{filepath.Join(root, "acme", "web01", "server.crt")}, org.Servers[0].Certificates)
	assert.Equal(t, []string{filepath.Join(root, "acme", "web01", "server.key")}, org.Servers[0].Keys)
	assert.Equal(t, []string{filepath.Join(root, "acme", "web02", "server.csr")}, org.Servers[1].CSRs)
}

func TestResolvePassphraseSources(t *testing.T) {
	layout := orgtree.Layout{
		ScanRoot:     "/data/new",
		OldRoot:      "/data/old",
		OverridePath: "/etc/certtree/pass.txt",
		EnvFallback:  "/run/secrets/pass",
	}

	tests := []struct {
		name   string
		layout orgtree.Layout
		server string
		want   []string
	}{
		{
			name:   "Nested server",
			layout: layout,
			server: "/data/new/acme/web01",
			want: []string{
				"/data/new/acme/web01/passphrase.txt",
				"/etc/certtree/pass.txt",
				"/data/new/acme/passphrase.txt",
				"/data/new/passphrase.txt",
				"/data/old/acme/web01/passphrase.txt",
				"/data/old/acme/passphrase.txt",
				"/data/old/passphrase.txt",
				"/run/secrets/pass",
			},
		},
		{
			name:   "Flat org server collapses duplicates",
			layout: layout,
			server: "/data/new/globex",
			want: []string{
				"/data/new/globex/passphrase.txt",
				"/etc/certtree/pass.txt",
				"/data/new/passphrase.txt",
				"/data/old/globex/passphrase.txt",
				"/data/old/passphrase.txt",
				"/run/secrets/pass",
			},
		},
		{
			name:   "Root server",
			layout: layout,
			server: "/data/new",
			want: []string{
				"/data/new/passphrase.txt",
				"/etc/certtree/pass.txt",
				"/data/old/passphrase.txt",
				"/run/secrets/pass",
			},
		},
		{
			name:   "No old tree, custom file name",
			layout: orgtree.Layout{ScanRoot: "/data/new/", FileName: "secret.txt"},
			server: "/data/new/acme/web01/",
			want: []string{
				"/data/new/acme/web01/secret.txt",
				"/data/new/acme/secret.txt",
				"/data/new/secret.txt",
			},
		},
		{
			name:   "Scanning the old tree itself",
			layout: orgtree.Layout{ScanRoot: "/data/old", OldRoot: "/data/old"},
			server: "/data/old/acme/web01",
			want: []string{
				"/data/old/acme/web01/passphrase.txt",
				"/data/old/acme/passphrase.txt",
				"/data/old/passphrase.txt",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make([]string, 0, len(tt.want))
			for _, w := range tt.want {
				want = append(want, filepath.FromSlash(w))
			}
			got := orgtree.ResolvePassphraseSources(tt.layout, filepath.FromSlash(tt.server))
			assert.Equal(t, want, got)
			assert.Equal(t, got, orgtree.ResolvePassphraseSources(tt.layout, filepath.FromSlash(tt.server)))
		})
	}
}

func TestLoadPassphrases(t *testing.T) {
	base := t.TempDir()
	scan := filepath.Join(base, "new")
	server := filepath.Join(scan, "acme", "web01")
	testpki.WriteFile(t, server, "passphrase.txt", []byte("server-one\r\nserver-two\n"))
	testpki.WriteFile(t, scan, "passphrase.txt", []byte("\nroot\n"))
	testpki.WriteFile(t, filepath.Join(base, "old"), "passphrase.txt", []byte("old-root\n"))
	env := testpki.WriteFile(t, base, "env.txt", []byte("from-env"))

	layout := orgtree.Layout{ScanRoot: scan, OldRoot: filepath.Join(base, "old"), EnvFallback: env}
	ps, err := orgtree.LoadPassphrases(layout, server)
	require.NoError(t, err)
	defer secret.WipeAll(ps)

	var got []string
	for _, p := range ps {
		require.NoError(t, p.Use(func(b []byte) error {
			got = append(got, string(b))
			return nil
		}))
	}
	assert.Equal(t, []string{"server-one", "server-two", "root", "old-root", "from-env"}, got)
	assert.Equal(t, filepath.Join(server, "passphrase.txt"), ps[0].Source)
	assert.Equal(t, filepath.Join(base, "old", "passphrase.txt"), ps[3].Source)
	assert.Equal(t, env, ps[4].Source)
}
