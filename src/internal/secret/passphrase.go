// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package secret

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/gc"
)

// ErrWiped indicates the passphrase was used after [Passphrase.Wipe].
var ErrWiped = errors.New("secret: passphrase already wiped")

// Passphrase is one candidate secret and the file it came from.
type Passphrase struct {
	// Source is the file the passphrase was read from (or a label such as "env").
	Source string

	mu    sync.Mutex
	value []byte
}

// New copies value into a new Passphrase. The caller may clear value afterwards.
func New(source string, value []byte) *Passphrase {
	return &Passphrase{Source: source, value: append([]byte(nil), value...)}
}

// Use calls fn with a private copy of the passphrase and zeroes the copy when fn
// returns, including when it panics.
//
// Parameters:
//   - fn: Callback receiving the secret; it must not retain the slice
//
// Returns:
//   - error: Error returned by fn, or [ErrWiped]
//
// Thread Safety: Safe for concurrent use.
func (p *Passphrase) Use(fn func(secret []byte) error) error {
	p.mu.Lock()
	if p.value == nil {
		p.mu.Unlock()
		return ErrWiped
	}
	scoped := append([]byte(nil), p.value...)
	p.mu.Unlock()

	defer clear(scoped)
	return fn(scoped)
}

// Wipe zeroes and drops the stored value. Further [Passphrase.Use] calls fail.
func (p *Passphrase) Wipe() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.value)
	p.value = nil
}

// String never reveals the secret.
func (p *Passphrase) String() string {
	return fmt.Sprintf("passphrase(%s)", p.Source)
}

// LoadFile reads one passphrase per non-empty line from path. CRLF line endings
// are tolerated. The file buffer is zeroed after parsing.
//
// Parameters:
//   - path: Passphrase file
//
// Returns:
//   - []*Passphrase: Candidates in file order, each tagged with path
//   - error: Error from reading the file (os.ErrNotExist when it is absent)
func LoadFile(path string) ([]*Passphrase, error) {
	data, err := gc.ReadSecretFile(path)
	if err != nil {
		return nil, err
	}
	defer clear(data)

	var out []*Passphrase
	for line := range bytes.SplitSeq(data, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out = append(out, New(path, line))
	}
	return out, nil
}

// LoadFiles loads every existing file in paths, in order. Missing files are
// skipped silently; other read errors are returned alongside what was loaded.
func LoadFiles(paths []string) ([]*Passphrase, error) {
	var (
		out  []*Passphrase
		errs []error
	)
	for _, path := range paths {
		ps, err := LoadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			errs = append(errs, fmt.Errorf("secret: %s: %w", path, err))
			continue
		}
		out = append(out, ps...)
	}
	return out, errors.Join(errs...)
}

// WipeAll wipes every passphrase in ps.
func WipeAll(ps []*Passphrase) {
	for _, p := range ps {
		p.Wipe()
	}
}
