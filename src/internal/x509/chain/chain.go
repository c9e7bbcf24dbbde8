// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"errors"
	"sync"

	x509certs "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/certs"
	x509name "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/name"
)

// ErrEmptyChain indicates a chain without certificates.
var ErrEmptyChain = errors.New("x509chain: no certificates in chain")

// Chain manages an ordered [X.509] bundle, leaf first.
//
// [X.509]: https://grokipedia.com/page/X.509
type Chain struct {
	mu    sync.RWMutex
	Certs []*x509.Certificate
	*x509certs.Certificate
}

// New creates a new Chain from certs, leaf first.
//
// Parameters:
//   - certs: Certificates in bundle order
//
// Returns:
//   - *Chain: New Chain instance
func New(certs ...*x509.Certificate) *Chain {
	return &Chain{
		Certs:       certs,
		Certificate: x509certs.New(),
	}
}

// FromBytes decodes every certificate in a PEM or DER bundle into a Chain.
func FromBytes(data []byte) (*Chain, error) {
	ch := New()
	certs, err := ch.DecodeMultiple(data)
	if err != nil {
		return nil, err
	}
	ch.Certs = certs
	return ch, nil
}

// Link describes the relation between a certificate and the next one in the bundle.
type Link struct {
	Index       int    `json:"index"`
	Issuer      string `json:"issuer"`
	NextSubject string `json:"nextSubject"`
	NameMatch   bool   `json:"nameMatch"`
	SignatureOK bool   `json:"signatureOK"`
}

// OK reports whether the link is sound.
func (l Link) OK() bool { return l.NameMatch && l.SignatureOK }

// Links checks every adjacent pair: the issuer of Certs[i] must equal the subject
// of Certs[i+1] in canonical form, and Certs[i+1] must have signed Certs[i].
//
// Returns:
//   - []Link: One entry per adjacent pair; nil for bundles of fewer than two certificates
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Links() []Link {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) < 2 {
		return nil
	}

	links := make([]Link, 0, len(ch.Certs)-1)
	for i := 0; i < len(ch.Certs)-1; i++ {
		cert, next := ch.Certs[i], ch.Certs[i+1]
		issuer, _ := x509name.FromRaw(cert.RawIssuer)
		subject, _ := x509name.FromRaw(next.RawSubject)

		links = append(links, Link{
			Index:       i,
			Issuer:      issuer.Canonical,
			NextSubject: subject.Canonical,
			NameMatch:   issuer.Equal(subject),
			SignatureOK: cert.CheckSignatureFrom(next) == nil,
		})
	}
	return links
}

// BrokenLinks returns the links that are not [Link.OK].
func (ch *Chain) BrokenLinks() []Link {
	var broken []Link
	for _, l := range ch.Links() {
		if !l.OK() {
			broken = append(broken, l)
		}
	}
	return broken
}

// IsSelfSigned checks if a certificate is self-signed.
//
// It verifies the certificate's signature against itself.
//
// Parameters:
//   - cert: Certificate to check
//
// Returns:
//   - bool: true if self-signed, false otherwise
func (ch *Chain) IsSelfSigned(cert *x509.Certificate) bool {
	return cert.CheckSignatureFrom(cert) == nil
}

// IsRootNode determines if a certificate is a root node in the chain.
//
// Parameters:
//   - cert: Certificate to check
//
// Returns:
//   - bool: true if it's a root certificate (currently checks if self-signed)
func (ch *Chain) IsRootNode(cert *x509.Certificate) bool {
	return ch.IsSelfSigned(cert)
}

// HasRoot reports whether the bundle ends with a self-signed certificate.
func (ch *Chain) HasRoot() bool {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.hasRoot()
}

func (ch *Chain) hasRoot() bool {
	return len(ch.Certs) > 1 && ch.IsRootNode(ch.Certs[len(ch.Certs)-1])
}

// FilterIntermediates returns the certificates between the leaf and the root.
//
// When the bundle does not end with a root, everything after the leaf is an
// intermediate.
//
// Returns:
//   - []*x509.Certificate: Slice of intermediate certificates, or nil if none
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) FilterIntermediates() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	end := len(ch.Certs)
	if ch.hasRoot() {
		end--
	}
	if end <= 1 {
		return nil
	}
	return ch.Certs[1:end]
}

// VerifyChain verifies the leaf against the bundle itself.
//
// The last certificate acts as the only trusted root, so a bundle that stops
// at an intermediate fails with [x509.UnknownAuthorityError]. Expiry is
// checked against the current time.
//
// Returns:
//   - error: Error if verification fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) VerifyChain() error {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return ErrEmptyChain
	}

	roots := x509.NewCertPool()
	intermediates := x509.NewCertPool()
	for i, cert := range ch.Certs {
		if i == len(ch.Certs)-1 {
			roots.AddCert(cert)
		} else {
			intermediates.AddCert(cert)
		}
	}

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: intermediates,
		KeyUsages:     []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
	}

	if _, err := ch.Certs[0].Verify(opts); err != nil {
		// Return the original error from the verification process to preserve
		// detailed diagnostic information (e.g., expiration, unknown authority).
		return err
	}

	return nil
}
