// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509engine

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	x509name "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/name"
)

var (
	// ErrEngineUnavailable indicates the engine cannot run at all (e.g. openssl is not installed).
	ErrEngineUnavailable = errors.New("x509engine: crypto engine unavailable")

	// ErrUnknownEngine indicates an engine kind that is not implemented.
	ErrUnknownEngine = errors.New("x509engine: unknown engine kind")

	// ErrParseCertificate indicates the certificate could not be parsed.
	ErrParseCertificate = errors.New("x509engine: failed to parse certificate")

	// ErrParseCSR indicates the certificate request could not be parsed.
	ErrParseCSR = errors.New("x509engine: failed to parse certificate request")

	// ErrParseKey indicates the private key could not be parsed.
	ErrParseKey = errors.New("x509engine: failed to parse private key")

	// ErrEncryptedKey indicates the key is passphrase protected and no passphrase was given.
	ErrEncryptedKey = errors.New("x509engine: private key is encrypted")

	// ErrDecrypt indicates the passphrase did not decrypt the key.
	ErrDecrypt = errors.New("x509engine: failed to decrypt private key")

	// ErrUnsupportedKey indicates a public key algorithm without a fingerprint mapping.
	ErrUnsupportedKey = errors.New("x509engine: unsupported public key algorithm")
)

// Engine kinds accepted by [New].
const (
	KindNative  = "native"
	KindOpenSSL = "openssl"
)

// Engine is the crypto capability used by the probe.
//
// Implementations must be safe for concurrent use; the auditor probes
// several organizations in parallel.
type Engine interface {
	// Name returns the engine kind.
	Name() string
	// ParseCertificate reads the first certificate of a PEM, DER or PKCS7 container.
	ParseCertificate(data []byte) (*CertInfo, error)
	// ParseCSR reads a PEM or DER certificate request.
	ParseCSR(data []byte) (*CSRInfo, error)
	// ParsePrivateKey reads a private key, decrypting it with passphrase when needed.
	ParsePrivateKey(data, passphrase []byte) (*KeyInfo, error)
}

// PublicKeyInfo describes a public key in comparable form.
type PublicKeyInfo struct {
	Algorithm   string `json:"algorithm"`
	Bits        int    `json:"bits"`
	Modulus     string `json:"modulus,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// CertInfo is what an engine extracts from a certificate.
type CertInfo struct {
	Subject     x509name.DN
	Issuer      x509name.DN
	NotBefore   time.Time
	NotAfter    time.Time
	Serial      string
	DNSNames    []string
	IPAddresses []string
	IsCA        bool
	PublicKey   PublicKeyInfo
}

// CSRInfo is what an engine extracts from a certificate request.
type CSRInfo struct {
	Subject     x509name.DN
	DNSNames    []string
	IPAddresses []string
	PublicKey   PublicKeyInfo
}

// KeyInfo is what an engine extracts from a private key.
type KeyInfo struct {
	PublicKey PublicKeyInfo
}

// New returns the engine for kind.
//
// Parameters:
//   - kind: [KindNative] or [KindOpenSSL] (empty means native)
//   - opensslPath: openssl binary name or path, used by the OpenSSL engine
//
// Returns:
//   - Engine: Ready engine
//   - error: [ErrUnknownEngine], or [ErrEngineUnavailable] when openssl cannot be found
func New(kind, opensslPath string) (Engine, error) {
	switch strings.ToLower(kind) {
	case "", KindNative:
		return NewNativeEngine(), nil
	case KindOpenSSL:
		eng, err := NewOpenSSLEngine(NewSystemExecutor(), opensslPath)
		if err != nil {
			return nil, err
		}
		return eng, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, kind)
	}
}

// Fingerprint computes the comparable description of pub.
//
// The fingerprint is "<ALG>:<hex sha256(PKIX SubjectPublicKeyInfo DER)>". RSA keys
// also expose their modulus as upper-case hex, the form openssl prints.
//
// Parameters:
//   - pub: Public key (*rsa.PublicKey, *ecdsa.PublicKey or ed25519.PublicKey)
//
// Returns:
//   - PublicKeyInfo: Algorithm, size, modulus and fingerprint
//   - error: [ErrUnsupportedKey] for other key types
func Fingerprint(pub crypto.PublicKey) (PublicKeyInfo, error) {
	var info PublicKeyInfo

	switch k := pub.(type) {
	case *rsa.PublicKey:
		info.Algorithm = "RSA"
		info.Bits = k.N.BitLen()
		info.Modulus = strings.ToUpper(k.N.Text(16))
	case *ecdsa.PublicKey:
		info.Algorithm = "EC"
		info.Bits = k.Curve.Params().BitSize
	case ed25519.PublicKey:
		info.Algorithm = "ED25519"
		info.Bits = 256
	default:
		return PublicKeyInfo{}, fmt.Errorf("%w: %T", ErrUnsupportedKey, pub)
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return PublicKeyInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
	}
	sum := sha256.Sum256(der)
	info.Fingerprint = info.Algorithm + ":" + hex.EncodeToString(sum[:])

	return info, nil
}

// FingerprintFromPEM fingerprints the first "PUBLIC KEY" block in data.
func FingerprintFromPEM(data []byte) (PublicKeyInfo, error) {
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		data = rest
		if block.Type != "PUBLIC KEY" {
			continue
		}
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return PublicKeyInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedKey, err)
		}
		return Fingerprint(pub)
	}
	return PublicKeyInfo{}, fmt.Errorf("%w: no PUBLIC KEY block", ErrUnsupportedKey)
}

// formatSerial renders a serial number the way openssl does: upper-case hex, even length.
func formatSerial(n *big.Int) string {
	if n == nil {
		return ""
	}
	s := strings.ToUpper(n.Text(16))
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}
