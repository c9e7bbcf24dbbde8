// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509name

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrParseName indicates that the DER encoding of a name could not be parsed.
	ErrParseName = errors.New("x509name: failed to parse distinguished name")

	// ErrMalformedString indicates that an RFC 2253 string is not well formed.
	ErrMalformedString = errors.New("x509name: malformed RFC 2253 string")
)

// DN is a distinguished name with the attributes an operator usually cares
// about broken out into named fields.
//
// Canonical holds the full RFC 2253 encoding (most significant RDN last,
// RFC 4514 escaping, NFC-normalized). Attributes that have no named field
// (emailAddress, serialNumber, ...) still take part in Canonical.
type DN struct {
	Country            []string `json:"c,omitempty"`
	Province           []string `json:"st,omitempty"`
	Locality           []string `json:"l,omitempty"`
	Organization       []string `json:"o,omitempty"`
	OrganizationalUnit []string `json:"ou,omitempty"`
	CommonName         string   `json:"cn,omitempty"`
	Canonical          string   `json:"canonical"`
}

// FromRaw builds a DN from the raw DER encoding of a Name, such as
// [x509.Certificate.RawIssuer] or [x509.Certificate.RawSubject].
//
// The RDN order of the encoding is preserved, which is what makes the
// canonical form comparable byte for byte between an issuer field and the
// subject field of the certificate that issued it.
//
// [x509.Certificate.RawIssuer]: https://pkg.go.dev/crypto/x509#Certificate
// [x509.Certificate.RawSubject]: https://pkg.go.dev/crypto/x509#Certificate
func FromRaw(raw []byte) (DN, error) {
	var rdns pkix.RDNSequence
	rest, err := asn1.Unmarshal(raw, &rdns)
	if err != nil || len(rest) > 0 {
		return DN{}, ErrParseName
	}

	var n pkix.Name
	n.FillFromRDNSequence(&rdns)

	return DN{
		Country:            n.Country,
		Province:           n.Province,
		Locality:           n.Locality,
		Organization:       n.Organization,
		OrganizationalUnit: n.OrganizationalUnit,
		CommonName:         n.CommonName,
		Canonical:          norm.NFC.String(rdns.String()),
	}, nil
}

// Parse builds a DN from an RFC 2253 string, as printed by
// "openssl x509 -nameopt RFC2253". The string itself becomes the canonical
// form after NFC normalization; the named fields are filled from its
// attribute type and value pairs.
func Parse(s string) (DN, error) {
	s = strings.TrimSpace(s)
	d := DN{Canonical: norm.NFC.String(s)}
	if s == "" {
		return d, nil
	}

	pairs, err := splitAttributes(s)
	if err != nil {
		return DN{}, err
	}

	for _, p := range pairs {
		switch strings.ToUpper(p.typ) {
		case "C", "2.5.4.6":
			d.Country = append(d.Country, p.value)
		case "ST", "S", "2.5.4.8":
			d.Province = append(d.Province, p.value)
		case "L", "2.5.4.7":
			d.Locality = append(d.Locality, p.value)
		case "O", "2.5.4.10":
			d.Organization = append(d.Organization, p.value)
		case "OU", "2.5.4.11":
			d.OrganizationalUnit = append(d.OrganizationalUnit, p.value)
		case "CN", "2.5.4.3":
			// RFC 2253 strings list the most specific RDN first.
			if d.CommonName == "" {
				d.CommonName = p.value
			}
		}
	}

	return d, nil
}

// String returns the canonical RFC 2253 encoding.
func (d DN) String() string { return d.Canonical }

// Equal reports whether both names have byte-identical canonical encodings.
func (d DN) Equal(o DN) bool { return d.Canonical == o.Canonical }

// IsEmpty reports whether the name has no attributes.
func (d DN) IsEmpty() bool { return d.Canonical == "" }

type attribute struct {
	typ   string
	value string
}

// splitAttributes splits an RFC 2253 string on unescaped ',' and '+'
// separators and unescapes each value.
func splitAttributes(s string) ([]attribute, error) {
	var (
		out     []attribute
		current strings.Builder
		escaped bool
		quoted  bool
	)

	flush := func() error {
		raw := strings.TrimSpace(current.String())
		current.Reset()
		if raw == "" {
			return nil
		}
		typ, value, ok := strings.Cut(raw, "=")
		if !ok {
			return ErrMalformedString
		}
		v, err := unescapeValue(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		out = append(out, attribute{typ: strings.TrimSpace(typ), value: v})
		return nil
	}

	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			current.WriteRune(r)
			escaped = true
		case r == '"':
			current.WriteRune(r)
			quoted = !quoted
		case (r == ',' || r == '+' || r == ';') && !quoted:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			current.WriteRune(r)
		}
	}
	if escaped || quoted {
		return nil, ErrMalformedString
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return out, nil
}

// unescapeValue resolves RFC 4514 escapes ("\,", "\2C") and surrounding quotes.
func unescapeValue(v string) (string, error) {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}
	if strings.HasPrefix(v, "#") {
		// Hex-encoded BER value; kept verbatim.
		return v, nil
	}

	var b []byte
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c != '\\' {
			b = append(b, c)
			continue
		}
		if i+1 >= len(v) {
			return "", ErrMalformedString
		}
		if i+2 < len(v) && isHex(v[i+1]) && isHex(v[i+2]) {
			decoded, err := hex.DecodeString(v[i+1 : i+3])
			if err != nil {
				return "", ErrMalformedString
			}
			b = append(b, decoded...)
			i += 2
			continue
		}
		b = append(b, v[i+1])
		i++
	}

	return string(b), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
