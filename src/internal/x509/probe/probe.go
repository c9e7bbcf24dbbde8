// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509probe

import (
	"bufio"
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/secret"
	x509certs "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/certs"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
	x509name "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/name"
)

var (
	// ErrUnreadableFile indicates an I/O failure reading the file.
	ErrUnreadableFile = errors.New("x509probe: unreadable file")

	// ErrUnsupportedFormat indicates malformed or unrecognized file contents.
	ErrUnsupportedFormat = errors.New("x509probe: unsupported format")

	// ErrNoUsablePassphrase indicates an encrypted key that no candidate passphrase decrypted.
	ErrNoUsablePassphrase = errors.New("x509probe: no usable passphrase")
)

// encryptionScanLines bounds the textual encryption check.
const encryptionScanLines = 40

// CertificateArtifact is the probed view of a certificate file.
type CertificateArtifact struct {
	Path                  string                   `json:"path"`
	Format                x509certs.Format         `json:"format"`
	BlockCount            int                      `json:"blockCount"`
	Subject               x509name.DN              `json:"subject"`
	Issuer                x509name.DN              `json:"issuer"`
	NotBefore             time.Time                `json:"notBefore"`
	NotAfter              time.Time                `json:"notAfter"`
	Serial                string                   `json:"serial,omitempty"`
	DNSNames              []string                 `json:"dnsNames,omitempty"`
	IPAddresses           []string                 `json:"ipAddresses,omitempty"`
	PublicKey             x509engine.PublicKeyInfo `json:"publicKey"`
	HasEmbeddedPrivateKey bool                     `json:"hasEmbeddedPrivateKey"`
	IsCA                  bool                     `json:"isCA"`
	SelfSigned            bool                     `json:"selfSigned"`

	// Raw is the file content; Certs the decoded certificates, leaf first.
	Raw   []byte              `json:"-"`
	Certs []*x509.Certificate `json:"-"`
}

// Fingerprint returns the public-key fingerprint, empty when unknown.
func (c *CertificateArtifact) Fingerprint() string { return c.PublicKey.Fingerprint }

// KeyArtifact is the probed view of a private key file.
type KeyArtifact struct {
	Path      string                   `json:"path"`
	Encrypted bool                     `json:"encrypted"`
	PublicKey x509engine.PublicKeyInfo `json:"publicKey"`

	// DecryptedWith names the passphrase source that worked, never the secret.
	DecryptedWith string `json:"decryptedWith,omitempty"`
	Attempts      int    `json:"attempts,omitempty"`
}

// Fingerprint returns the public-key fingerprint, empty when unknown.
func (k *KeyArtifact) Fingerprint() string { return k.PublicKey.Fingerprint }

// CsrArtifact is the probed view of a certificate request file.
type CsrArtifact struct {
	Path        string                   `json:"path"`
	Subject     x509name.DN              `json:"subject"`
	DNSNames    []string                 `json:"dnsNames,omitempty"`
	IPAddresses []string                 `json:"ipAddresses,omitempty"`
	PublicKey   x509engine.PublicKeyInfo `json:"publicKey"`
}

// Fingerprint returns the public-key fingerprint, empty when unknown.
func (r *CsrArtifact) Fingerprint() string { return r.PublicKey.Fingerprint }

// Prober probes files through a crypto engine.
//
// Thread Safety: Safe for concurrent use when the engine is.
type Prober struct {
	engine  x509engine.Engine
	decoder *x509certs.Certificate
}

// New returns a Prober using engine.
func New(engine x509engine.Engine) *Prober {
	return &Prober{engine: engine, decoder: x509certs.New()}
}

// Engine returns the engine in use.
func (p *Prober) Engine() x509engine.Engine { return p.engine }

// ProbeCertificate probes the certificate file at path.
//
// PEM is recognised by its leading "-----BEGIN" marker and BlockCount is the
// number of certificate blocks. PKCS7 is opaque for chain purposes but its first
// certificate is still described. Anything else is DER.
//
// Parameters:
//   - path: Certificate file
//
// Returns:
//   - *CertificateArtifact: Always non-nil; fields are zero where unknown
//   - error: [ErrUnreadableFile] or [ErrUnsupportedFormat]
func (p *Prober) ProbeCertificate(path string) (*CertificateArtifact, error) {
	art := &CertificateArtifact{Path: path}

	data, err := gc.ReadFile(path)
	if err != nil {
		return art, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	return art, p.describeCertificate(art, data)
}

func (p *Prober) describeCertificate(art *CertificateArtifact, data []byte) error {
	art.Raw = data
	art.Format = x509certs.DetectFormat(data)
	art.HasEmbeddedPrivateKey = x509certs.HasBlock(data, "PRIVATE KEY")

	input := data
	switch art.Format {
	case x509certs.FormatPEM:
		art.BlockCount = x509certs.CountCertificateBlocks(data)
		if input = x509certs.FirstBlock(data, "CERTIFICATE"); input == nil {
			return fmt.Errorf("%w: %s: no CERTIFICATE block", ErrUnsupportedFormat, art.Path)
		}
		art.Certs, _ = p.decoder.DecodeMultiple(data)
	case x509certs.FormatPKCS7:
		art.Certs, _ = p.decoder.DecodePKCS7(data)
	default:
		var err error
		if art.Certs, err = p.decoder.DecodeMultiple(data); err != nil {
			// binary .p7b files carry no PEM marker
			art.Certs, _ = p.decoder.DecodePKCS7(data)
		}
	}

	info, err := p.engine.ParseCertificate(input)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, art.Path, err)
	}

	art.Subject = info.Subject
	art.Issuer = info.Issuer
	art.NotBefore = info.NotBefore
	art.NotAfter = info.NotAfter
	art.Serial = info.Serial
	art.DNSNames = info.DNSNames
	art.IPAddresses = info.IPAddresses
	art.PublicKey = info.PublicKey
	art.IsCA = info.IsCA
	art.SelfSigned = info.Subject.Equal(info.Issuer)

	return nil
}

// ProbeKey probes the private key file at path.
//
// Encryption is detected textually. An encrypted key is tried against each
// candidate in order, stopping at the first that decrypts. Candidates are only
// exposed through [secret.Passphrase.Use], so each secret lives for one attempt.
//
// Parameters:
//   - path: Key file
//   - candidates: Passphrases to try, in order
//
// Returns:
//   - *KeyArtifact: Always non-nil; PublicKey is empty when the key stayed locked
//   - error: [ErrUnreadableFile], [ErrUnsupportedFormat] or [ErrNoUsablePassphrase]
func (p *Prober) ProbeKey(path string, candidates []*secret.Passphrase) (*KeyArtifact, error) {
	art := &KeyArtifact{Path: path}

	data, err := gc.ReadFile(path)
	if err != nil {
		return art, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	defer clear(data)

	art.Encrypted = IsEncrypted(data)
	if !art.Encrypted {
		info, err := p.engine.ParsePrivateKey(data, nil)
		switch {
		case err == nil:
			art.PublicKey = info.PublicKey
			return art, nil
		case errors.Is(err, x509engine.ErrEncryptedKey):
			art.Encrypted = true
		default:
			return art, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, path, err)
		}
	}

	if len(candidates) == 0 {
		return art, fmt.Errorf("%w: %s: no candidate passphrases", ErrNoUsablePassphrase, path)
	}

	var lastErr error
	for _, candidate := range candidates {
		art.Attempts++
		var info *x509engine.KeyInfo
		err := candidate.Use(func(pass []byte) error {
			var perr error
			info, perr = p.engine.ParsePrivateKey(data, pass)
			return perr
		})
		if err == nil {
			art.PublicKey = info.PublicKey
			art.DecryptedWith = candidate.Source
			return art, nil
		}
		lastErr = err
	}

	return art, fmt.Errorf("%w: %s: tried %d candidates: %w", ErrNoUsablePassphrase, path, art.Attempts, lastErr)
}

// ProbeCSR probes the certificate request file at path.
//
// Returns:
//   - *CsrArtifact: Always non-nil
//   - error: [ErrUnreadableFile] or [ErrUnsupportedFormat]
func (p *Prober) ProbeCSR(path string) (*CsrArtifact, error) {
	art := &CsrArtifact{Path: path}

	data, err := gc.ReadFile(path)
	if err != nil {
		return art, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}

	info, err := p.engine.ParseCSR(data)
	if err != nil {
		return art, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, path, err)
	}

	art.Subject = info.Subject
	art.DNSNames = info.DNSNames
	art.IPAddresses = info.IPAddresses
	art.PublicKey = info.PublicKey

	return art, nil
}

// IsEncrypted reports whether the first lines of data mark a passphrase-protected
// key: "ENCRYPTED PRIVATE KEY", "Proc-Type: 4,ENCRYPTED", or the token ENCRYPTED.
func IsEncrypted(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for n := 0; n < encryptionScanLines && scanner.Scan(); n++ {
		line := scanner.Text()
		if strings.Contains(line, "ENCRYPTED PRIVATE KEY") ||
			strings.Contains(line, "Proc-Type: 4,ENCRYPTED") ||
			hasToken(line, "ENCRYPTED") {
			return true
		}
	}
	return false
}

// hasToken reports whether token appears in line delimited by non-letters.
func hasToken(line, token string) bool {
	for field := range strings.FieldsFuncSeq(line, func(r rune) bool {
		return (r < 'A' || r > 'Z') && (r < 'a' || r > 'z')
	}) {
		if field == token {
			return true
		}
	}
	return false
}

// Kind is the role of a file in a server unit.
type Kind int

const (
	// KindUnknown is a file that is none of the below.
	KindUnknown Kind = iota
	// KindCertificate is a certificate, fullchain or chain file.
	KindCertificate
	// KindKey is a private key.
	KindKey
	// KindCSR is a certificate request.
	KindCSR
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCertificate:
		return "certificate"
	case KindKey:
		return "key"
	case KindCSR:
		return "csr"
	default:
		return "unknown"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// TargetExtensions are the file extensions a server unit is made of.
var TargetExtensions = []string{".cer", ".crt", ".pem", ".csr", ".key"}

// IsTarget reports whether name has one of [TargetExtensions], case-insensitively.
func IsTarget(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, t := range TargetExtensions {
		if ext == t {
			return true
		}
	}
	return false
}

// KindOf classifies path by extension. A ".pem" is sniffed with data: a file
// holding only a private key is a key, only a request is a CSR, anything else
// is a certificate.
func KindOf(path string, data []byte) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".key":
		return KindKey
	case ".csr":
		return KindCSR
	case ".cer", ".crt":
		return KindCertificate
	case ".pem":
		switch {
		case x509certs.CountCertificateBlocks(data) > 0, x509certs.DetectFormat(data) == x509certs.FormatPKCS7:
			return KindCertificate
		case x509certs.HasBlock(data, "CERTIFICATE REQUEST"):
			return KindCSR
		case x509certs.HasBlock(data, "PRIVATE KEY"):
			return KindKey
		default:
			return KindCertificate
		}
	default:
		return KindUnknown
	}
}

// Probed is the result of [Prober.ProbeFile]; exactly one artifact is set.
type Probed struct {
	Kind        Kind                 `json:"kind"`
	Certificate *CertificateArtifact `json:"certificate,omitempty"`
	Key         *KeyArtifact         `json:"key,omitempty"`
	CSR         *CsrArtifact         `json:"csr,omitempty"`
}

// ProbeFile classifies path with [KindOf] and probes it accordingly.
func (p *Prober) ProbeFile(path string, candidates []*secret.Passphrase) (*Probed, error) {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".pem") {
		var err error
		if data, err = gc.ReadFile(path); err != nil {
			return &Probed{Kind: KindUnknown}, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
		}
	}

	out := &Probed{Kind: KindOf(path, data)}
	var err error
	switch out.Kind {
	case KindCertificate:
		out.Certificate, err = p.ProbeCertificate(path)
	case KindKey:
		out.Key, err = p.ProbeKey(path, candidates)
	case KindCSR:
		out.CSR, err = p.ProbeCSR(path)
	default:
		err = fmt.Errorf("%w: %s: not a certificate, key or request file", ErrUnsupportedFormat, path)
	}
	return out, err
}
