// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verify

import (
	"errors"

	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

// ErrVerificationFailed indicates that at least one server unit is [VerdictNG].
var ErrVerificationFailed = errors.New("verify: one or more server units failed verification")

// ComparisonKind names the two artifact roles being compared.
type ComparisonKind int

const (
	// CertKey compares a certificate with a private key.
	CertKey ComparisonKind = iota
	// CertCsr compares a certificate with a certificate request.
	CertCsr
	// KeyCsr compares a private key with a certificate request.
	KeyCsr
)

// String returns the kind name.
func (k ComparisonKind) String() string {
	switch k {
	case CertCsr:
		return "cert-csr"
	case KeyCsr:
		return "key-csr"
	default:
		return "cert-key"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (k ComparisonKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Reason explains a [MatchResult].
type Reason int

const (
	// Match means both fingerprints are present and equal.
	Match Reason = iota
	// Mismatch means both fingerprints are present and differ.
	Mismatch
	// UnextractableFingerprint means at least one side has no fingerprint.
	UnextractableFingerprint
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case Mismatch:
		return "mismatch"
	case UnextractableFingerprint:
		return "unextractable-fingerprint"
	default:
		return "match"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (r Reason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// MatchResult is one pairwise comparison.
type MatchResult struct {
	FileA   string         `json:"fileA"`
	FileB   string         `json:"fileB"`
	Kind    ComparisonKind `json:"kind"`
	IsMatch bool           `json:"isMatch"`
	Reason  Reason         `json:"reason"`
}

// Compare compares two fingerprints.
//
// Parameters:
//   - kind: Roles of the two sides
//   - fileA, fpA: First artifact path and fingerprint
//   - fileB, fpB: Second artifact path and fingerprint
//
// Returns:
//   - MatchResult: IsMatch is true only for two equal, non-empty fingerprints
func Compare(kind ComparisonKind, fileA, fpA, fileB, fpB string) MatchResult {
	r := MatchResult{FileA: fileA, FileB: fileB, Kind: kind}
	switch {
	case fpA == "" || fpB == "":
		r.Reason = UnextractableFingerprint
	case fpA == fpB:
		r.IsMatch = true
		r.Reason = Match
	default:
		r.Reason = Mismatch
	}
	return r
}

// CrossCompare compares every pair of artifacts of different roles.
//
// Results come in a fixed order: all certificate×key pairs, then
// certificate×CSR, then key×CSR, each in input order. The result length is
// |C|·|K| + |C|·|R| + |K|·|R|.
//
// Parameters:
//   - certs: Certificates of the unit
//   - keys: Private keys of the unit
//   - csrs: Certificate requests of the unit
//
// Returns:
//   - []MatchResult: One result per pair
func CrossCompare(certs []*x509probe.CertificateArtifact, keys []*x509probe.KeyArtifact, csrs []*x509probe.CsrArtifact) []MatchResult {
	results := make([]MatchResult, 0, len(certs)*len(keys)+len(certs)*len(csrs)+len(keys)*len(csrs))

	for _, c := range certs {
		for _, k := range keys {
			results = append(results, Compare(CertKey, c.Path, c.Fingerprint(), k.Path, k.Fingerprint()))
		}
	}
	for _, c := range certs {
		for _, r := range csrs {
			results = append(results, Compare(CertCsr, c.Path, c.Fingerprint(), r.Path, r.Fingerprint()))
		}
	}
	for _, k := range keys {
		for _, r := range csrs {
			results = append(results, Compare(KeyCsr, k.Path, k.Fingerprint(), r.Path, r.Fingerprint()))
		}
	}

	return results
}

// Verdict is the outcome of one server unit.
type Verdict int

const (
	// VerdictInsufficient means nothing could be compared.
	VerdictInsufficient Verdict = iota
	// VerdictOK means every comparison matched.
	VerdictOK
	// VerdictNG means at least one comparison did not match.
	VerdictNG
)

// String returns "OK", "NG" or "Insufficient".
func (v Verdict) String() string {
	switch v {
	case VerdictOK:
		return "OK"
	case VerdictNG:
		return "NG"
	default:
		return "Insufficient"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Summary folds a set of [MatchResult] into a verdict.
type Summary struct {
	AllMatch        bool    `json:"allMatch"`
	ComparisonCount int     `json:"comparisonCount"`
	Matches         int     `json:"matches"`
	Mismatches      int     `json:"mismatches"`
	Unextractable   int     `json:"unextractable"`
	Verdict         Verdict `json:"verdict"`
}

// Summarize computes the verdict of results.
//
// AllMatch is true only when at least one comparison ran and all matched; an
// empty result set is [VerdictInsufficient], never a vacuous success.
func Summarize(results []MatchResult) Summary {
	s := Summary{ComparisonCount: len(results)}
	for _, r := range results {
		switch r.Reason {
		case Match:
			s.Matches++
		case Mismatch:
			s.Mismatches++
		case UnextractableFingerprint:
			s.Unextractable++
		}
	}

	switch {
	case s.ComparisonCount == 0:
		s.Verdict = VerdictInsufficient
	case s.Matches == s.ComparisonCount:
		s.AllMatch = true
		s.Verdict = VerdictOK
	default:
		s.Verdict = VerdictNG
	}
	return s
}
