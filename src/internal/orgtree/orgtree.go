// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package orgtree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/posix"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

// RootUnitName names the synthetic unit for files directly inside a scanned directory.
const RootUnitName = "(root)"

// ErrRootNotFound indicates a scan root that does not exist or is not a directory.
var ErrRootNotFound = errors.New("orgtree: scan root not found")

// OrgUnit is one organization directory.
type OrgUnit struct {
	Name    string       `json:"name"`
	Path    string       `json:"path"`
	Servers []ServerUnit `json:"servers,omitempty"`
}

// ServerUnit is one server directory and the files it holds, each list sorted.
type ServerUnit struct {
	Name         string   `json:"name"`
	Path         string   `json:"path"`
	Certificates []string `json:"certificates,omitempty"`
	Keys         []string `json:"keys,omitempty"`
	CSRs         []string `json:"csrs,omitempty"`
}

// IsEmpty reports whether the unit holds no target file.
func (s *ServerUnit) IsEmpty() bool {
	return len(s.Certificates) == 0 && len(s.Keys) == 0 && len(s.CSRs) == 0
}

// listing is a sorted, hidden-free directory listing.
type listing struct {
	dirs  []string
	files []string
}

func (l listing) hasTargets() bool {
	return slices.ContainsFunc(l.files, x509probe.IsTarget)
}

func list(dir string) (listing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return listing{}, err
	}

	var l listing
	for _, e := range entries {
		name := e.Name()
		if posix.IsHidden(name) {
			continue
		}
		switch {
		case e.IsDir():
			l.dirs = append(l.dirs, name)
		case e.Type().IsRegular():
			l.files = append(l.files, name)
		}
	}
	slices.Sort(l.dirs)
	slices.Sort(l.files)
	return l, nil
}

// EnumerateOrgs lists the organizations under root.
//
// Every visible subdirectory is an organization. When root itself holds target
// files, a [RootUnitName] organization pointing at root comes first.
//
// Parameters:
//   - root: Scan root
//
// Returns:
//   - []OrgUnit: Organizations, [RootUnitName] first, then sorted by name
//   - error: [ErrRootNotFound] when root is missing or not a directory
func EnumerateOrgs(root string) ([]OrgUnit, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	l, err := list(root)
	if err != nil {
		return nil, fmt.Errorf("orgtree: %s: %w", root, err)
	}

	orgs := make([]OrgUnit, 0, len(l.dirs)+1)
	if l.hasTargets() {
		orgs = append(orgs, OrgUnit{Name: RootUnitName, Path: root})
	}
	for _, d := range l.dirs {
		orgs = append(orgs, OrgUnit{Name: d, Path: filepath.Join(root, d)})
	}
	return orgs, nil
}

// EnumerateServers lists the server units of org.
//
// Every visible subdirectory is a server. The organization directory itself is
// a [RootUnitName] server when it has no subdirectories or holds target files
// directly. The [RootUnitName] organization only ever has its [RootUnitName]
// server, since its subdirectories are the other organizations.
//
// Returns:
//   - []ServerUnit: Servers without files loaded, [RootUnitName] first
//   - error: Error if the directory cannot be listed
func EnumerateServers(org OrgUnit) ([]ServerUnit, error) {
	if org.Name == RootUnitName {
		return []ServerUnit{{Name: RootUnitName, Path: org.Path}}, nil
	}

	l, err := list(org.Path)
	if err != nil {
		return nil, fmt.Errorf("orgtree: %s: %w", org.Path, err)
	}

	servers := make([]ServerUnit, 0, len(l.dirs)+1)
	if len(l.dirs) == 0 || l.hasTargets() {
		servers = append(servers, ServerUnit{Name: RootUnitName, Path: org.Path})
	}
	for _, d := range l.dirs {
		servers = append(servers, ServerUnit{Name: d, Path: filepath.Join(org.Path, d)})
	}
	return servers, nil
}

// LoadServerFiles fills the file lists of server from the files directly in its
// directory. Files are classified with [x509probe.KindOf]; a ".pem" is read to
// tell keys and requests apart from certificates.
//
// Returns:
//   - error: Listing error, or the joined read errors of ".pem" files (those are
//     still listed as certificates so the prober reports them per file)
func LoadServerFiles(server *ServerUnit) error {
	l, err := list(server.Path)
	if err != nil {
		return fmt.Errorf("orgtree: %s: %w", server.Path, err)
	}

	server.Certificates, server.Keys, server.CSRs = nil, nil, nil

	var errs []error
	for _, name := range l.files {
		if !x509probe.IsTarget(name) {
			continue
		}
		path := filepath.Join(server.Path, name)

		var data []byte
		if strings.EqualFold(filepath.Ext(name), ".pem") {
			if data, err = gc.ReadFile(path); err != nil {
				errs = append(errs, fmt.Errorf("orgtree: %s: %w", path, err))
			}
		}

		switch x509probe.KindOf(path, data) {
		case x509probe.KindKey:
			server.Keys = append(server.Keys, path)
		case x509probe.KindCSR:
			server.CSRs = append(server.CSRs, path)
		default:
			server.Certificates = append(server.Certificates, path)
		}
		clear(data)
	}
	return errors.Join(errs...)
}

// LoadOrg enumerates the servers of org and loads their files into org.Servers.
//
// A server whose directory cannot be read is kept with empty file lists; its
// error is returned joined with the others.
func LoadOrg(org *OrgUnit) error {
	servers, err := EnumerateServers(*org)
	if err != nil {
		return err
	}

	var errs []error
	for i := range servers {
		if err := LoadServerFiles(&servers[i]); err != nil {
			errs = append(errs, err)
		}
	}
	org.Servers = servers
	return errors.Join(errs...)
}
