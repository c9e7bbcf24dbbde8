// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"fmt"

	x509certs "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/certs"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

// ErrNotPEM indicates merge input that is not PEM certificate text.
var ErrNotPEM = errors.New("x509chain: merge input is not PEM certificate data")

// Completeness is the block-count heuristic for a certificate file.
type Completeness int

const (
	// SingleCertNeedsMerge is PEM with one certificate block; an intermediate must be appended.
	SingleCertNeedsMerge Completeness = iota
	// FullchainGuess is PEM with two or more blocks. It is not a trust validation.
	FullchainGuess
	// UnknownPKCS7 is a PKCS7 container; block counting does not apply.
	UnknownPKCS7
	// UnknownDER is binary DER; block counting does not apply.
	UnknownDER
)

// String returns the classification name.
func (c Completeness) String() string {
	switch c {
	case FullchainGuess:
		return "fullchain-guess"
	case UnknownPKCS7:
		return "unknown-pkcs7"
	case UnknownDER:
		return "unknown-der"
	default:
		return "single-cert-needs-merge"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (c Completeness) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ClassifyChainCompleteness classifies a probed certificate.
//
// PEM with two or more certificate blocks is [FullchainGuess], PEM with fewer is
// [SingleCertNeedsMerge]. DER and PKCS7 are unknown.
func ClassifyChainCompleteness(cert *x509probe.CertificateArtifact) Completeness {
	return classify(cert.Format, cert.BlockCount)
}

// ClassifyBytes classifies raw certificate file contents.
func ClassifyBytes(data []byte) Completeness {
	return classify(x509certs.DetectFormat(data), x509certs.CountCertificateBlocks(data))
}

func classify(format x509certs.Format, blocks int) Completeness {
	switch format {
	case x509certs.FormatPKCS7:
		return UnknownPKCS7
	case x509certs.FormatDER:
		return UnknownDER
	}
	if blocks >= 2 {
		return FullchainGuess
	}
	return SingleCertNeedsMerge
}

// MergeChain concatenates leaf, intermediate and optional root PEM in that order.
//
// Each input is normalized (LF line endings, surrounding whitespace trimmed,
// single trailing LF). When skipIfAlreadyMerged is set and the leaf already
// holds two or more certificate blocks, the normalized leaf is returned as-is
// instead of appending a second copy of the chain.
//
// Parameters:
//   - leaf: Leaf certificate PEM
//   - intermediate: Intermediate PEM (required unless the leaf is returned unchanged)
//   - root: Root PEM, may be nil
//   - skipIfAlreadyMerged: Return a multi-block leaf unchanged
//
// Returns:
//   - []byte: Merged PEM
//   - error: [ErrNotPEM] when an input is not PEM certificate text
func MergeChain(leaf, intermediate, root []byte, skipIfAlreadyMerged bool) ([]byte, error) {
	leafPEM, err := normalizedCertPEM("leaf", leaf)
	if err != nil {
		return nil, err
	}
	if skipIfAlreadyMerged && x509certs.CountCertificateBlocks(leafPEM) >= 2 {
		return leafPEM, nil
	}

	interPEM, err := normalizedCertPEM("intermediate", intermediate)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(leafPEM)+len(interPEM)+len(root))
	out = append(out, leafPEM...)
	out = append(out, interPEM...)

	if len(root) > 0 {
		rootPEM, err := normalizedCertPEM("root", root)
		if err != nil {
			return nil, err
		}
		out = append(out, rootPEM...)
	}

	return out, nil
}

func normalizedCertPEM(role string, data []byte) ([]byte, error) {
	norm := x509certs.NormalizePEM(data)
	if x509certs.DetectFormat(norm) != x509certs.FormatPEM || x509certs.CountCertificateBlocks(norm) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotPEM, role)
	}
	return norm, nil
}
