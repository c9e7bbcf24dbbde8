// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	x509certs "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/certs"
	x509name "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/name"
)

// opensslTimeLayout matches "notAfter=Jan  2 15:04:05 2026 GMT".
const opensslTimeLayout = "Jan _2 15:04:05 2006 MST"

// OpenSSLEngine implements [Engine] by shelling out to an openssl binary.
//
// Input always travels on stdin. Passphrases are written to a 0600 temporary
// file for the single pkey invocation that needs them and removed afterwards,
// so they never appear on a command line.
//
// Thread Safety: Safe for concurrent use if the executor is.
type OpenSSLEngine struct {
	exec   CommandExecutor
	binary string

	// TempDir holds passphrase files; empty means [os.TempDir].
	TempDir string
}

// NewOpenSSLEngine resolves binary through exec.
//
// Parameters:
//   - exec: Command runner, [SystemExecutor] in production
//   - binary: Name or path of the openssl executable (empty means "openssl")
//
// Returns:
//   - *OpenSSLEngine: Ready engine
//   - error: [ErrEngineUnavailable] when the binary cannot be found
func NewOpenSSLEngine(exec CommandExecutor, binary string) (*OpenSSLEngine, error) {
	if binary == "" {
		binary = "openssl"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, binary, err)
	}
	return &OpenSSLEngine{exec: exec, binary: path}, nil
}

// Name implements [Engine].
func (e *OpenSSLEngine) Name() string { return KindOpenSSL }

// ParseCertificate implements [Engine].
func (e *OpenSSLEngine) ParseCertificate(data []byte) (*CertInfo, error) {
	inform := "PEM"
	switch x509certs.DetectFormat(data) {
	case x509certs.FormatPKCS7:
		out, err := e.exec.Execute(data, e.binary, "pkcs7", "-print_certs")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
		}
		if data = x509certs.FirstBlock(out, "CERTIFICATE"); data == nil {
			return nil, fmt.Errorf("%w: no certificates in PKCS7", ErrParseCertificate)
		}
	case x509certs.FormatDER:
		inform = "DER"
	}

	out, err := e.exec.Execute(data, e.binary, "x509", "-inform", inform, "-noout",
		"-subject", "-issuer", "-startdate", "-enddate", "-serial",
		"-ext", "subjectAltName,basicConstraints", "-nameopt", "RFC2253")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
	}
	info, err := parseX509Text(out)
	if err != nil {
		return nil, err
	}

	pubPEM, err := e.exec.Execute(data, e.binary, "x509", "-inform", inform, "-noout", "-pubkey")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
	}
	if info.PublicKey, err = FingerprintFromPEM(pubPEM); err != nil {
		return nil, err
	}

	return info, nil
}

// ParseCSR implements [Engine]. Requested SANs are not extracted.
func (e *OpenSSLEngine) ParseCSR(data []byte) (*CSRInfo, error) {
	inform := "PEM"
	if x509certs.DetectFormat(data) == x509certs.FormatDER {
		inform = "DER"
	}

	out, err := e.exec.Execute(data, e.binary, "req", "-inform", inform, "-noout", "-subject", "-nameopt", "RFC2253")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCSR, err)
	}
	fields := parseFields(out)
	subject, err := x509name.Parse(fields["subject"])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseCSR, err)
	}

	pubPEM, err := e.exec.Execute(data, e.binary, "req", "-inform", inform, "-noout", "-pubkey")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCSR, err)
	}
	pub, err := FingerprintFromPEM(pubPEM)
	if err != nil {
		return nil, err
	}

	return &CSRInfo{Subject: subject, PublicKey: pub}, nil
}

// ParsePrivateKey implements [Engine].
//
// An empty passphrase is passed as "pass:" so openssl fails instead of prompting.
func (e *OpenSSLEngine) ParsePrivateKey(data, passphrase []byte) (*KeyInfo, error) {
	args := []string{"pkey", "-pubout"}
	if x509certs.DetectFormat(data) == x509certs.FormatDER {
		args = append(args, "-inform", "DER")
	}

	if len(passphrase) == 0 {
		args = append(args, "-passin", "pass:")
	} else {
		passFile, cleanup, err := e.writePassphrase(passphrase)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		args = append(args, "-passin", "file:"+passFile)
	}

	out, err := e.exec.Execute(data, e.binary, args...)
	if err != nil {
		return nil, keyError(err, data, passphrase)
	}
	pub, err := FingerprintFromPEM(out)
	if err != nil {
		return nil, err
	}
	return &KeyInfo{PublicKey: pub}, nil
}

// writePassphrase stores passphrase in a fresh 0600 file. The returned cleanup
// removes it and must run on every path.
func (e *OpenSSLEngine) writePassphrase(passphrase []byte) (string, func(), error) {
	f, err := os.CreateTemp(e.TempDir, "certtree-pass-*")
	if err != nil {
		return "", nil, fmt.Errorf("%w: passphrase file: %v", ErrEngineUnavailable, err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if err := f.Chmod(0o600); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("%w: passphrase file: %v", ErrEngineUnavailable, err)
	}
	// openssl reads the first line of the file as the passphrase.
	_, werr := f.Write(append(append([]byte(nil), passphrase...), '\n'))
	cerr := f.Close()
	if werr != nil || cerr != nil {
		cleanup()
		return "", nil, fmt.Errorf("%w: passphrase file: %v", ErrEngineUnavailable, errors.Join(werr, cerr))
	}

	return f.Name(), cleanup, nil
}

func keyError(err error, data, passphrase []byte) error {
	var stderr string
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		stderr = strings.ToLower(cmdErr.Stderr)
	}
	encrypted := bytes.Contains(data, []byte("ENCRYPTED"))

	switch {
	case len(passphrase) == 0 && encrypted:
		return fmt.Errorf("%w: %v", ErrEncryptedKey, err)
	case len(passphrase) > 0 && (encrypted || strings.Contains(stderr, "decrypt") || strings.Contains(stderr, "password")):
		return fmt.Errorf("%w: %v", ErrDecrypt, err)
	default:
		return fmt.Errorf("%w: %v", ErrParseKey, err)
	}
}

// parseX509Text reads the output of "openssl x509 -noout -subject -issuer
// -startdate -enddate -serial -ext subjectAltName,basicConstraints -nameopt RFC2253".
func parseX509Text(out []byte) (*CertInfo, error) {
	fields := parseFields(out)

	subject, err := x509name.Parse(fields["subject"])
	if err != nil {
		return nil, fmt.Errorf("%w: subject: %w", ErrParseCertificate, err)
	}
	issuer, err := x509name.Parse(fields["issuer"])
	if err != nil {
		return nil, fmt.Errorf("%w: issuer: %w", ErrParseCertificate, err)
	}
	notBefore, err := time.Parse(opensslTimeLayout, fields["notBefore"])
	if err != nil {
		return nil, fmt.Errorf("%w: notBefore: %v", ErrParseCertificate, err)
	}
	notAfter, err := time.Parse(opensslTimeLayout, fields["notAfter"])
	if err != nil {
		return nil, fmt.Errorf("%w: notAfter: %v", ErrParseCertificate, err)
	}

	info := &CertInfo{
		Subject:   subject,
		Issuer:    issuer,
		NotBefore: notBefore.UTC(),
		NotAfter:  notAfter.UTC(),
		Serial:    strings.ToUpper(fields["serial"]),
	}
	info.DNSNames, info.IPAddresses = parseSANs(out)
	info.IsCA = bytes.Contains(out, []byte("CA:TRUE"))

	return info, nil
}

// parseFields collects "key=value" lines. Only the first "=" splits, values keep theirs.
func parseFields(out []byte) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok || strings.ContainsAny(key, " :") {
			continue
		}
		if _, seen := fields[key]; !seen {
			fields[key] = strings.TrimSpace(value)
		}
	}
	return fields
}

// parseSANs extracts "DNS:" and "IP Address:" entries from the subjectAltName section.
func parseSANs(out []byte) (dns, ips []string) {
	inSAN := false
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "X509v3 Subject Alternative Name") {
			inSAN = true
			continue
		}
		if !inSAN || line == "" {
			continue
		}
		for entry := range strings.SplitSeq(line, ",") {
			entry = strings.TrimSpace(entry)
			switch {
			case strings.HasPrefix(entry, "DNS:"):
				dns = append(dns, strings.TrimPrefix(entry, "DNS:"))
			case strings.HasPrefix(entry, "IP Address:"):
				ips = append(ips, strings.TrimPrefix(entry, "IP Address:"))
			}
		}
		inSAN = false
	}
	return dns, ips
}
