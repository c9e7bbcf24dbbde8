// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509engine

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"strings"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/cloudflare/cfssl/helpers/derhelpers"
	"github.com/youmark/pkcs8"

	x509certs "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/certs"
	x509name "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/name"
)

const (
	blockEncryptedPKCS8 = "ENCRYPTED PRIVATE KEY"
	blockCSR            = "CERTIFICATE REQUEST"
	blockCSRLegacy      = "NEW CERTIFICATE REQUEST"
)

// NativeEngine implements [Engine] with Go crypto.
//
// Thread Safety: Safe for concurrent use; it holds no mutable state.
type NativeEngine struct {
	decoder *x509certs.Certificate
}

// NewNativeEngine returns a native engine.
func NewNativeEngine() *NativeEngine {
	return &NativeEngine{decoder: x509certs.New()}
}

// Name implements [Engine].
func (e *NativeEngine) Name() string { return KindNative }

// ParseCertificate implements [Engine].
func (e *NativeEngine) ParseCertificate(data []byte) (*CertInfo, error) {
	cert, err := e.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCertificate, err)
	}
	return CertInfoFromX509(cert)
}

// CertInfoFromX509 builds a [CertInfo] from an already parsed certificate.
func CertInfoFromX509(cert *x509.Certificate) (*CertInfo, error) {
	subject, err := x509name.FromRaw(cert.RawSubject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCertificate, err)
	}
	issuer, err := x509name.FromRaw(cert.RawIssuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCertificate, err)
	}
	pub, err := Fingerprint(cert.PublicKey)
	if err != nil {
		return nil, err
	}

	return &CertInfo{
		Subject:     subject,
		Issuer:      issuer,
		NotBefore:   cert.NotBefore.UTC(),
		NotAfter:    cert.NotAfter.UTC(),
		Serial:      formatSerial(cert.SerialNumber),
		DNSNames:    cert.DNSNames,
		IPAddresses: ipStrings(cert.IPAddresses),
		IsCA:        cert.BasicConstraintsValid && cert.IsCA,
		PublicKey:   pub,
	}, nil
}

// ParseCSR implements [Engine].
//
// PEM requests are parsed and signature-checked with cfssl; bare DER is parsed directly.
func (e *NativeEngine) ParseCSR(data []byte) (*CSRInfo, error) {
	var (
		csr *x509.CertificateRequest
		err error
	)

	switch block := firstBlock(data, blockCSR, blockCSRLegacy); {
	case block != nil:
		csr, err = helpers.ParseCSRPEM(pem.EncodeToMemory(&pem.Block{Type: blockCSR, Bytes: block.Bytes}))
	case x509certs.DetectFormat(data) == x509certs.FormatDER:
		csr, err = x509.ParseCertificateRequest(data)
	default:
		return nil, fmt.Errorf("%w: no CERTIFICATE REQUEST block", ErrParseCSR)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCSR, err)
	}

	subject, err := x509name.FromRaw(csr.RawSubject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCSR, err)
	}
	pub, err := Fingerprint(csr.PublicKey)
	if err != nil {
		return nil, err
	}

	return &CSRInfo{
		Subject:     subject,
		DNSNames:    csr.DNSNames,
		IPAddresses: ipStrings(csr.IPAddresses),
		PublicKey:   pub,
	}, nil
}

// ParsePrivateKey implements [Engine].
//
// It accepts PKCS#1, SEC1 and PKCS#8 keys in PEM or DER, "ENCRYPTED PRIVATE KEY"
// (PKCS#8 PBES2) and legacy "Proc-Type: 4,ENCRYPTED" PEM. Non-key PEM blocks
// (a certificate stored alongside, EC PARAMETERS) are skipped.
//
// Parameters:
//   - data: Key file contents
//   - passphrase: Candidate passphrase, may be empty
//
// Returns:
//   - *KeyInfo: Public key description
//   - error: [ErrEncryptedKey], [ErrDecrypt] or [ErrParseKey]
//
// Thread Safety: Safe for concurrent use. passphrase is only read.
func (e *NativeEngine) ParsePrivateKey(data, passphrase []byte) (*KeyInfo, error) {
	signer, err := e.privateKey(data, passphrase)
	if err != nil {
		return nil, err
	}
	pub, err := Fingerprint(signer.Public())
	if err != nil {
		return nil, err
	}
	return &KeyInfo{PublicKey: pub}, nil
}

func (e *NativeEngine) privateKey(data, passphrase []byte) (crypto.Signer, error) {
	block := firstKeyBlock(data)
	if block == nil {
		if x509certs.DetectFormat(data) != x509certs.FormatDER {
			return nil, fmt.Errorf("%w: no PRIVATE KEY block", ErrParseKey)
		}
		return parseDERKey(data, passphrase)
	}

	switch {
	case block.Type == blockEncryptedPKCS8:
		if len(passphrase) == 0 {
			return nil, ErrEncryptedKey
		}
		key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
		}
		return asSigner(key)

	case isLegacyEncrypted(block):
		if len(passphrase) == 0 {
			return nil, ErrEncryptedKey
		}
		signer, err := helpers.ParsePrivateKeyPEMWithPassword(pem.EncodeToMemory(block), passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
		}
		return signer, nil

	default:
		signer, err := derhelpers.ParsePrivateKeyDER(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseKey, err)
		}
		return signer, nil
	}
}

// parseDERKey handles binary keys: plain PKCS#1/SEC1/PKCS#8, then encrypted PKCS#8.
func parseDERKey(der, passphrase []byte) (crypto.Signer, error) {
	if signer, err := derhelpers.ParsePrivateKeyDER(der); err == nil {
		return signer, nil
	}
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: unrecognized DER key", ErrParseKey)
	}
	key, err := pkcs8.ParsePKCS8PrivateKey(der, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return asSigner(key)
}

func asSigner(key any) (crypto.Signer, error) {
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	return signer, nil
}

func isLegacyEncrypted(block *pem.Block) bool {
	return strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED")
}

func firstKeyBlock(data []byte) *pem.Block {
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			return nil
		}
		if strings.HasSuffix(block.Type, "PRIVATE KEY") {
			return block
		}
		data = rest
	}
	return nil
}

func firstBlock(data []byte, types ...string) *pem.Block {
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			return nil
		}
		for _, t := range types {
			if block.Type == t {
				return block
			}
		}
		data = rest
	}
	return nil
}

func ipStrings(ips []net.IP) []string {
	if len(ips) == 0 {
		return nil
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}
	return out
}
