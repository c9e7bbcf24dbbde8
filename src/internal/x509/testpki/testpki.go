// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package testpki builds throwaway certificate hierarchies, keys and CSRs for
// tests. Nothing here touches the network; every artifact is generated in memory.
package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/youmark/pkcs8"
)

// Issued is a certificate together with the key that certifies it.
type Issued struct {
	Cert *x509.Certificate
	Key  crypto.Signer
	PEM  []byte
}

var (
	rsaOnce sync.Once
	rsaPool []*rsa.PrivateKey
	serial  int64
	mu      sync.Mutex
)

// RSAKey returns one of a small pool of pre-generated 2048-bit RSA keys.
// Index 0..3 are distinct keys.
func RSAKey(t testing.TB, index int) *rsa.PrivateKey {
	t.Helper()
	rsaOnce.Do(func() {
		for range 4 {
			k, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				panic(err)
			}
			rsaPool = append(rsaPool, k)
		}
	})
	return rsaPool[index%len(rsaPool)]
}

// ECKey generates a fresh P-256 key.
func ECKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "failed to generate EC key")
	return k
}

func nextSerial() *big.Int {
	mu.Lock()
	defer mu.Unlock()
	serial++
	return big.NewInt(serial)
}

func issue(t testing.TB, tmpl *x509.Certificate, parent *Issued, key crypto.Signer) *Issued {
	t.Helper()

	signerCert, signerKey := tmpl, key
	if parent != nil {
		signerCert, signerKey = parent.Cert, parent.Key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, signerCert, key.Public(), signerKey)
	require.NoError(t, err, "failed to create certificate")

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err, "failed to parse created certificate")

	return &Issued{
		Cert: cert,
		Key:  key,
		PEM:  pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}
}

// NewRoot creates a self-signed CA named cn.
func NewRoot(t testing.TB, cn string) *Issued {
	t.Helper()
	return issue(t, caTemplate(pkix.Name{CommonName: cn, Organization: []string{"Test PKI"}}), nil, ECKey(t))
}

// NewSelfSignedCA creates a self-signed certificate for cn over key with
// CA:TRUE set, the way "openssl req -x509" writes server certificates.
func NewSelfSignedCA(t testing.TB, cn string, key crypto.Signer) *Issued {
	t.Helper()
	tmpl := caTemplate(pkix.Name{CommonName: cn})
	tmpl.DNSNames = []string{cn}
	return issue(t, tmpl, nil, key)
}

// NewIntermediate creates a CA named cn signed by parent.
func NewIntermediate(t testing.TB, cn string, parent *Issued) *Issued {
	t.Helper()
	return issue(t, caTemplate(pkix.Name{CommonName: cn, Organization: []string{"Test PKI"}}), parent, ECKey(t))
}

// NewLeaf creates an end-entity certificate for cn, signed by parent and
// certifying key.
func NewLeaf(t testing.TB, cn string, parent *Issued, key crypto.Signer) *Issued {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: nextSerial(),
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     []string{cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(90 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	return issue(t, tmpl, parent, key)
}

func caTemplate(subject pkix.Name) *x509.Certificate {
	return &x509.Certificate{
		SerialNumber:          nextSerial(),
		Subject:               subject,
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
}

// KeyPEM encodes key as an unencrypted PKCS#8 "PRIVATE KEY" block.
func KeyPEM(t testing.TB, key crypto.Signer) []byte {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err, "failed to marshal PKCS#8 key")
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

// RSAKeyPEM encodes key as a PKCS#1 "RSA PRIVATE KEY" block.
func RSAKeyPEM(key *rsa.PrivateKey) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
}

// EncryptedPKCS8PEM encodes key as an "ENCRYPTED PRIVATE KEY" block protected by pass.
func EncryptedPKCS8PEM(t testing.TB, key crypto.Signer, pass string) []byte {
	t.Helper()
	der, err := pkcs8.MarshalPrivateKey(key, []byte(pass), nil)
	require.NoError(t, err, "failed to marshal encrypted PKCS#8 key")
	return pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: der})
}

// LegacyEncryptedPEM encodes an RSA key as a "Proc-Type: 4,ENCRYPTED" PKCS#1 block.
func LegacyEncryptedPEM(t testing.TB, key *rsa.PrivateKey, pass string) []byte {
	t.Helper()
	//nolint:staticcheck // legacy PEM encryption is exactly what is being exercised
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), []byte(pass), x509.PEMCipherAES256)
	require.NoError(t, err, "failed to encrypt PEM block")
	return pem.EncodeToMemory(block)
}

// CSRPEM creates a PEM certificate signing request for cn signed by key.
func CSRPEM(t testing.TB, cn string, key crypto.Signer) []byte {
	t.Helper()
	der, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: cn, Organization: []string{"Example"}},
		DNSNames: []string{cn},
	}, key)
	require.NoError(t, err, "failed to create CSR")
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: der})
}

var (
	oidData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
)

// PKCS7 wraps certs in a certs-only SignedData container and returns its DER,
// laid out the way "openssl crl2pkcs7 -nocrl" writes it (empty digest
// algorithms, an empty CRL set, no signers).
func PKCS7(t testing.TB, certs ...*Issued) []byte {
	t.Helper()

	var raw []byte
	for _, c := range certs {
		raw = append(raw, c.Cert.Raw...)
	}

	contentInfo, err := asn1.Marshal(struct{ ContentType asn1.ObjectIdentifier }{oidData})
	require.NoError(t, err, "failed to marshal content info")

	emptySet := asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSet, IsCompound: true}
	signed, err := asn1.Marshal(struct {
		Version          int
		DigestAlgorithms asn1.RawValue
		ContentInfo      asn1.RawValue
		Certificates     asn1.RawValue
		CRLs             asn1.RawValue
		SignerInfos      asn1.RawValue
	}{
		Version:          1,
		DigestAlgorithms: emptySet,
		ContentInfo:      asn1.RawValue{FullBytes: contentInfo},
		Certificates:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: raw},
		CRLs:             asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 1, IsCompound: true},
		SignerInfos:      emptySet,
	})
	require.NoError(t, err, "failed to marshal signed data")

	der, err := asn1.Marshal(struct {
		ContentType asn1.ObjectIdentifier
		Content     asn1.RawValue
	}{
		ContentType: oidSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: signed},
	})
	require.NoError(t, err, "failed to marshal PKCS7 content info")
	return der
}

// PKCS7PEM is [PKCS7] in a "PKCS7" PEM block.
func PKCS7PEM(t testing.TB, certs ...*Issued) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{Type: "PKCS7", Bytes: PKCS7(t, certs...)})
}

// NewPathLenZeroRoot creates a self-signed CA that may not certify further CAs.
func NewPathLenZeroRoot(t testing.TB, cn string) *Issued {
	t.Helper()
	tmpl := caTemplate(pkix.Name{CommonName: cn, Organization: []string{"Test PKI"}})
	tmpl.MaxPathLen = 0
	tmpl.MaxPathLenZero = true
	return issue(t, tmpl, nil, ECKey(t))
}

// WriteFile writes data to dir/name, creating parent directories, and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create directory")
	require.NoError(t, os.WriteFile(path, data, 0o600), "failed to write file")
	return path
}
