// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

var (
	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected certificate type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")
)

const (
	blockCertificate = "CERTIFICATE"
	blockPKCS7       = "PKCS7"
)

// Certificate provides methods to decode and encode [X.509] certificates.
// It maintains internal configuration such as the certificate block type.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: blockCertificate,
	}
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// DecodeMultiple decodes every certificate found in data.
//
// PEM input may interleave other blocks (a private key stored next to the
// certificate is common); they are skipped. When no certificate block is
// present at all, ErrInvalidBlockType is returned. Non-PEM input is parsed
// as concatenated DER.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}
			data = rest

			if block.Type != c.certBlockType {
				continue
			}

			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, ErrParseCertificate
			}

			certs = append(certs, cert)
		}

		if len(certs) == 0 {
			return nil, ErrInvalidBlockType
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err != nil {
		return nil, ErrParseCertificate
	}

	return certs, nil
}

// Decode decodes the first certificate from data.
//
// It accepts a PEM CERTIFICATE block, a PEM PKCS7 block, raw DER, or raw
// PKCS7 DER. For PKCS7 the first embedded certificate is returned.
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	if c.IsPEM(data) {
		block, _ := pem.Decode(data)
		switch block.Type {
		case c.certBlockType:
			data = block.Bytes
		case blockPKCS7:
			return c.decodePKCS7(block.Bytes)
		default:
			return nil, ErrInvalidBlockType
		}
	}

	cert, err := x509.ParseCertificate(data)
	if err == nil {
		return cert, nil
	}

	return c.decodePKCS7(data)
}

// DecodePKCS7 returns every certificate carried by a PKCS7 container, PEM or DER.
func (c *Certificate) DecodePKCS7(data []byte) ([]*x509.Certificate, error) {
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != blockPKCS7 {
			return nil, ErrInvalidBlockType
		}
		data = block.Bytes
	}

	// Attempt to parse as PKCS7 using Cloudflare's library
	p, err := pkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, ErrParsePKCS7
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}

	return p.Content.SignedData.Certificates, nil
}

func (c *Certificate) decodePKCS7(der []byte) (*x509.Certificate, error) {
	certs, err := c.DecodePKCS7(der)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	block := pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}

// FirstBlock returns the first PEM block of the given type re-encoded on its own,
// or nil when there is none.
func FirstBlock(data []byte, blockType string) []byte {
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			return nil
		}
		if block.Type == blockType {
			return pem.EncodeToMemory(block)
		}
		data = rest
	}
	return nil
}

// HasBlock reports whether data contains a PEM block whose type ends with suffix,
// e.g. "PRIVATE KEY" matches RSA, EC, PKCS#8 and encrypted PKCS#8 key blocks.
func HasBlock(data []byte, suffix string) bool {
	return bytes.Contains(data, []byte(suffix+"-----"))
}
