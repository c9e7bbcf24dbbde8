// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
)

// Format is the container format of a certificate file.
type Format int

const (
	// FormatDER is binary DER (anything that does not start with a PEM marker).
	FormatDER Format = iota
	// FormatPEM is one or more PEM CERTIFICATE blocks.
	FormatPEM
	// FormatPKCS7 is a PEM PKCS7 container.
	FormatPKCS7
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPEM:
		return "PEM"
	case FormatPKCS7:
		return "PKCS7"
	default:
		return "DER"
	}
}

// MarshalText implements [encoding.TextMarshaler] so reports carry the name.
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

var (
	pemMarker   = []byte("-----BEGIN")
	certMarker  = []byte("BEGIN CERTIFICATE-----")
	pkcs7Marker = []byte("BEGIN PKCS7-----")
	utf8BOM     = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat classifies data by its leading bytes.
//
// PEM is recognised by a leading "-----BEGIN" marker (after an optional UTF-8
// BOM and whitespace). A PEM file carrying "BEGIN PKCS7" is PKCS7. Everything
// else is treated as DER.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if !bytes.HasPrefix(trimmed, pemMarker) {
		return FormatDER
	}
	if bytes.Contains(data, pkcs7Marker) {
		return FormatPKCS7
	}
	return FormatPEM
}

// CountCertificateBlocks counts "BEGIN CERTIFICATE" markers in data. Request
// blocks ("BEGIN CERTIFICATE REQUEST") are not counted. Two or more indicate an
// embedded chain.
func CountCertificateBlocks(data []byte) int {
	return bytes.Count(data, certMarker)
}

// NormalizePEM converts CRLF and lone CR line endings to LF, trims
// surrounding whitespace, and terminates the text with a single LF.
// Empty input stays empty.
func NormalizePEM(data []byte) []byte {
	out := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	out = bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
	out = bytes.TrimPrefix(out, utf8BOM)
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return []byte{}
	}

	lines := bytes.Split(out, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	out = bytes.Join(lines, []byte("\n"))

	return append(out, '\n')
}
