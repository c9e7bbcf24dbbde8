// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/testpki"
)

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

func TestCertificate_DecodeMultiple(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	inter := testpki.NewIntermediate(t, "Intermediate-X", root)
	leaf := testpki.NewLeaf(t, "www.example.com", inter, testpki.ECKey(t))
	keyPEM := testpki.KeyPEM(t, leaf.Key)

	decoder := x509certs.New()

	tests := []struct {
		name        string
		input       []byte
		expectCount int
		expectError error
	}{
		{
			name:        "Single PEM Certificate",
			input:       leaf.PEM,
			expectCount: 1,
		},
		{
			name:        "Fullchain PEM",
			input:       append(append([]byte{}, leaf.PEM...), inter.PEM...),
			expectCount: 2,
		},
		{
			name:        "Key Block Skipped",
			input:       append(append([]byte{}, leaf.PEM...), keyPEM...),
			expectCount: 1,
		},
		{
			name:        "DER Format",
			input:       leaf.Cert.Raw,
			expectCount: 1,
		},
		{
			name:        "Invalid PEM Type",
			input:       []byte(invalidPEM),
			expectError: x509certs.ErrInvalidBlockType,
		},
		{
			name:        "Invalid Certificate Data",
			input:       []byte(invalidCERT),
			expectError: x509certs.ErrParseCertificate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := decoder.DecodeMultiple(tt.input)

			if tt.expectError != nil {
				assert.Equal(t, tt.expectError, err, "expected specific error")
				return
			}

			require.NoError(t, err, "unexpected error")
			assert.Len(t, certs, tt.expectCount, "expected correct number of certificates")
		})
	}
}

func TestCertificate_Decode(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	decoder := x509certs.New()

	t.Run("PEM", func(t *testing.T) {
		cert, err := decoder.Decode(root.PEM)
		require.NoError(t, err)
		assert.True(t, cert.Equal(root.Cert))
	})

	t.Run("DER", func(t *testing.T) {
		cert, err := decoder.Decode(root.Cert.Raw)
		require.NoError(t, err)
		assert.True(t, cert.Equal(root.Cert))
	})

	t.Run("Invalid Block Type", func(t *testing.T) {
		_, err := decoder.Decode([]byte(invalidPEM))
		assert.Equal(t, x509certs.ErrInvalidBlockType, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := decoder.Decode([]byte("not a certificate"))
		assert.Equal(t, x509certs.ErrParsePKCS7, err)
	})
}

func TestCertificate_DecodePKCS7(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	inter := testpki.NewIntermediate(t, "Intermediate-X", root)
	leaf := testpki.NewLeaf(t, "www.example.com", inter, testpki.ECKey(t))
	decoder := x509certs.New()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "PEM", input: testpki.PKCS7PEM(t, leaf, inter)},
		{name: "DER", input: testpki.PKCS7(t, leaf, inter)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, err := decoder.DecodePKCS7(tt.input)
			require.NoError(t, err)
			require.Len(t, certs, 2)
			assert.True(t, certs[0].Equal(leaf.Cert))
			assert.True(t, certs[1].Equal(inter.Cert))

			first, err := decoder.Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, "www.example.com", first.Subject.CommonName)
		})
	}

	t.Run("Empty container", func(t *testing.T) {
		_, err := decoder.DecodePKCS7(testpki.PKCS7(t))
		assert.Equal(t, x509certs.ErrNoCertificatesInPKCS, err)
	})

	t.Run("Certificate PEM is not PKCS7", func(t *testing.T) {
		_, err := decoder.DecodePKCS7(leaf.PEM)
		assert.Equal(t, x509certs.ErrInvalidBlockType, err)
	})

	t.Run("Detected as PKCS7", func(t *testing.T) {
		assert.Equal(t, x509certs.FormatPKCS7, x509certs.DetectFormat(testpki.PKCS7PEM(t, leaf)))
	})
}

func TestCertificate_EncodeMultiplePEM(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	decoder := x509certs.New()

	encoded := decoder.EncodeMultiplePEM(nil)
	assert.Empty(t, encoded)

	encoded = decoder.EncodeMultiplePEM([]*x509.Certificate{root.Cert, root.Cert})
	assert.Equal(t, 2, x509certs.CountCertificateBlocks(encoded))

	block, _ := pem.Decode(encoded)
	require.NotNil(t, block)
	assert.Equal(t, "CERTIFICATE", block.Type)
}

func TestDetectFormat(t *testing.T) {
	root := testpki.NewRoot(t, "Root")

	tests := []struct {
		name     string
		input    []byte
		expected x509certs.Format
	}{
		{name: "PEM", input: root.PEM, expected: x509certs.FormatPEM},
		{name: "PEM with BOM and blank lines", input: append([]byte("\xEF\xBB\xBF\n\n"), root.PEM...), expected: x509certs.FormatPEM},
		{name: "DER", input: root.Cert.Raw, expected: x509certs.FormatDER},
		{name: "PKCS7", input: []byte("-----BEGIN PKCS7-----\nMIIB\n-----END PKCS7-----\n"), expected: x509certs.FormatPKCS7},
		{name: "Empty", input: nil, expected: x509certs.FormatDER},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, x509certs.DetectFormat(tt.input))
		})
	}

	assert.Equal(t, "PKCS7", x509certs.FormatPKCS7.String())
}

func TestCountCertificateBlocks(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	inter := testpki.NewIntermediate(t, "Inter", root)

	assert.Equal(t, 0, x509certs.CountCertificateBlocks(nil))
	assert.Equal(t, 1, x509certs.CountCertificateBlocks(root.PEM))
	assert.Equal(t, 2, x509certs.CountCertificateBlocks(append(append([]byte{}, inter.PEM...), root.PEM...)))
	assert.Equal(t, 0, x509certs.CountCertificateBlocks(testpki.CSRPEM(t, "req.example.com", root.Key)))
}

func TestNormalizePEM(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	crlf := bytes.ReplaceAll(root.PEM, []byte("\n"), []byte("\r\n"))
	padded := append(append([]byte("  \r\n"), crlf...), []byte("\r\n\r\n  ")...)

	normalized := x509certs.NormalizePEM(padded)
	assert.Equal(t, root.PEM, normalized, "CRLF input must normalize to the LF original")
	assert.Equal(t, normalized, x509certs.NormalizePEM(normalized), "normalization is idempotent")
	assert.Empty(t, x509certs.NormalizePEM([]byte(" \n\t")))
}

func TestFirstBlockAndHasBlock(t *testing.T) {
	root := testpki.NewRoot(t, "Root")
	keyPEM := testpki.KeyPEM(t, root.Key)
	bundle := append(append([]byte{}, keyPEM...), root.PEM...)

	assert.Equal(t, root.PEM, x509certs.FirstBlock(bundle, "CERTIFICATE"))
	assert.Nil(t, x509certs.FirstBlock(root.PEM, "PRIVATE KEY"))
	assert.True(t, x509certs.HasBlock(bundle, "PRIVATE KEY"))
	assert.False(t, x509certs.HasBlock(root.PEM, "PRIVATE KEY"))
}
