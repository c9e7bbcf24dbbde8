// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

var (
	// ErrNoMatch indicates no candidate subject equals the leaf issuer.
	ErrNoMatch = errors.New("x509chain: no intermediate matches the leaf issuer")

	// ErrAmbiguousMatch indicates several candidate subjects equal the leaf issuer.
	ErrAmbiguousMatch = errors.New("x509chain: several intermediates match the leaf issuer")
)

// DefaultPatterns are used by [FindChainCandidates] when no pattern is given.
var DefaultPatterns = []string{"*intermediate*", "*chain*", "*ca.crt", "*ca.pem", "*ca.cer", "*ca-bundle*"}

// NoMatchError names the issuer nobody matched and what was tried.
type NoMatchError struct {
	Issuer string
	Tried  []string
}

// Error implements error.
func (e *NoMatchError) Error() string {
	return fmt.Sprintf("x509chain: no intermediate with subject %q among %d candidates", e.Issuer, len(e.Tried))
}

// Unwrap makes [errors.Is] match [ErrNoMatch].
func (e *NoMatchError) Unwrap() error { return ErrNoMatch }

// AmbiguousMatchError lists every candidate whose subject equals the issuer.
type AmbiguousMatchError struct {
	Issuer  string
	Matches []string
}

// Error implements error.
func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("x509chain: %d intermediates with subject %q: %s",
		len(e.Matches), e.Issuer, strings.Join(e.Matches, ", "))
}

// Unwrap makes [errors.Is] match [ErrAmbiguousMatch].
func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }

// CertificateProber is the part of [x509probe.Prober] the matcher needs.
type CertificateProber interface {
	ProbeCertificate(path string) (*x509probe.CertificateArtifact, error)
}

// FindChainCandidates gathers candidate intermediate certificates.
//
// Each search root is listed non-recursively and files are selected by filename
// pattern only, case-insensitively; contents are not sniffed during discovery.
// A search root that is a regular file is taken as-is. Missing roots are skipped.
// Selected files are then probed; files that fail to probe are reported in the
// second return value and left out.
//
// Parameters:
//   - prober: Certificate prober
//   - searchRoots: Directories (or files) to search
//   - patterns: [filepath.Match] patterns; [DefaultPatterns] when empty
//
// Returns:
//   - []*x509probe.CertificateArtifact: Candidates sorted by path, duplicates removed
//   - []error: One error per file that could not be probed
func FindChainCandidates(prober CertificateProber, searchRoots, patterns []string) ([]*x509probe.CertificateArtifact, []error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var paths []string
	for _, root := range searchRoots {
		paths = append(paths, matchingFiles(root, patterns)...)
	}
	slices.Sort(paths)
	paths = slices.Compact(paths)

	var (
		candidates []*x509probe.CertificateArtifact
		errs       []error
	)
	for _, path := range paths {
		art, err := prober.ProbeCertificate(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		candidates = append(candidates, art)
	}
	return candidates, errs
}

func matchingFiles(root string, patterns []string) []string {
	info, err := os.Stat(root)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		return []string{filepath.Clean(root)}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}

	var out []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if MatchesAny(entry.Name(), patterns) {
			out = append(out, filepath.Join(root, entry.Name()))
		}
	}
	return out
}

// MatchesAny reports whether name matches one of patterns, case-insensitively.
// Malformed patterns never match.
func MatchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, err := filepath.Match(strings.ToLower(p), lower); err == nil && ok {
			return true
		}
	}
	return false
}

// ResolveIntermediate selects the candidate issuing leaf.
//
// The leaf issuer and every candidate subject are compared in canonical
// RFC 2253 form, byte for byte. The leaf's own file, or a copy of the leaf,
// is never a candidate. The result depends only on the set of candidates, not
// their order, and repeated calls give the same answer.
//
// Parameters:
//   - leaf: Probed leaf certificate
//   - candidates: Probed candidate intermediates
//
// Returns:
//   - *x509probe.CertificateArtifact: The single matching candidate
//   - error: *[NoMatchError] for zero matches, *[AmbiguousMatchError] for more than one
func ResolveIntermediate(leaf *x509probe.CertificateArtifact, candidates []*x509probe.CertificateArtifact) (*x509probe.CertificateArtifact, error) {
	var (
		matches []*x509probe.CertificateArtifact
		tried   []string
	)

	for _, c := range candidates {
		if isSameFile(leaf, c) {
			continue
		}
		tried = append(tried, c.Path)
		if c.Subject.Equal(leaf.Issuer) {
			matches = append(matches, c)
		}
	}
	slices.Sort(tried)

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &NoMatchError{Issuer: leaf.Issuer.Canonical, Tried: tried}
	default:
		paths := make([]string, 0, len(matches))
		for _, m := range matches {
			paths = append(paths, m.Path)
		}
		slices.Sort(paths)
		return nil, &AmbiguousMatchError{Issuer: leaf.Issuer.Canonical, Matches: paths}
	}
}

func isSameFile(leaf, c *x509probe.CertificateArtifact) bool {
	if filepath.Clean(leaf.Path) == filepath.Clean(c.Path) {
		return true
	}
	return c.Fingerprint() != "" &&
		c.Fingerprint() == leaf.Fingerprint() &&
		c.Subject.Equal(leaf.Subject) &&
		c.Serial == leaf.Serial
}

// ResolveIntermediateIn resolves leaf among local candidates first. The global
// candidates are consulted only when no local candidate matches; an ambiguous
// local match is returned as is.
func ResolveIntermediateIn(leaf *x509probe.CertificateArtifact, local, global []*x509probe.CertificateArtifact) (*x509probe.CertificateArtifact, error) {
	match, err := ResolveIntermediate(leaf, local)
	if errors.Is(err, ErrNoMatch) && len(global) > 0 {
		return ResolveIntermediate(leaf, global)
	}
	return match, err
}

// LocateIntermediate resolves the intermediate of leaf from disk. Files next to
// the leaf that match patterns are the local candidates and searchRoots hold
// the global ones.
//
// Returns:
//   - *x509probe.CertificateArtifact: The single matching candidate
//   - []error: Candidate files that could not be probed
//   - error: As [ResolveIntermediate]
func LocateIntermediate(prober CertificateProber, leaf *x509probe.CertificateArtifact, searchRoots, patterns []string) (*x509probe.CertificateArtifact, []error, error) {
	local, localErrs := FindChainCandidates(prober, []string{filepath.Dir(leaf.Path)}, patterns)
	global, globalErrs := FindChainCandidates(prober, searchRoots, patterns)
	match, err := ResolveIntermediateIn(leaf, local, global)
	return match, slices.Concat(localErrs, globalErrs), err
}
