// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
)

// RenderASCIITree renders the bundle as an ASCII tree diagram.
//
// Each line carries a status mark: a certificate whose issuer link to the next
// certificate is broken (name mismatch or bad signature) is marked with "✗".
//
// Returns:
//   - string: ASCII tree representation of the certificate chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree() string {
	broken := brokenIndexes(ch.BrokenLinks())

	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, cert := range ch.Certs {
		connector := "├── "
		if i == len(ch.Certs)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if broken[i] {
			statusIcon = "✗"
		}

		certInfo := fmt.Sprintf("[%s] %s", statusIcon, cert.Subject.CommonName)
		if role := ch.getCertificateRole(i); role != "" {
			certInfo += fmt.Sprintf(" (%s)", role)
		}

		result.WriteString(connector + certInfo + "\n")
	}

	return result.String()
}

// RenderTable renders the bundle as a markdown table.
//
// It displays role, subject, issuer, expiry, key and link status for every
// certificate using tablewriter.
//
// Returns:
//   - string: Markdown table representation of the certificate chain
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable() string {
	links := ch.Links()

	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Role", "Subject", "Issuer", "Valid Until", "Key", "Link"})

	var rows [][]string
	for i, cert := range ch.Certs {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			ch.getCertificateRole(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keyDescription(cert.PublicKey),
			linkStatus(links, i),
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToVisualizationJSON converts the bundle to structured JSON for external tools.
//
// Returns:
//   - []byte: JSON with one entry per certificate and one per adjacent link
//   - error: Error if JSON marshaling fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON() ([]byte, error) {
	links := ch.Links()
	intermediates := ch.FilterIntermediates()
	hasRoot := ch.HasRoot()

	ch.mu.RLock()
	defer ch.mu.RUnlock()

	type CertificateVizData struct {
		Index              int       `json:"index"`
		Role               string    `json:"role"`
		Subject            string    `json:"subject"`
		Issuer             string    `json:"issuer"`
		SerialNumber       string    `json:"serialNumber"`
		SignatureAlgorithm string    `json:"signatureAlgorithm"`
		PublicKey          string    `json:"publicKey"`
		Fingerprint        string    `json:"fingerprint"`
		NotBefore          time.Time `json:"notBefore"`
		NotAfter           time.Time `json:"notAfter"`
		IsCA               bool      `json:"isCA"`
	}

	type VisualizationData struct {
		Timestamp         string               `json:"timestamp"`
		ChainLength       int                  `json:"chainLength"`
		IntermediateCount int                  `json:"intermediateCount"`
		HasRoot           bool                 `json:"hasRoot"`
		Certificates      []CertificateVizData `json:"certificates"`
		Links             []Link               `json:"links"`
	}

	data := VisualizationData{
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		ChainLength:       len(ch.Certs),
		IntermediateCount: len(intermediates),
		HasRoot:           hasRoot,
		Certificates:      make([]CertificateVizData, len(ch.Certs)),
		Links:             links,
	}
	if data.Links == nil {
		data.Links = []Link{}
	}

	for i, cert := range ch.Certs {
		pub, _ := x509engine.Fingerprint(cert.PublicKey)
		data.Certificates[i] = CertificateVizData{
			Index:              i,
			Role:               ch.getCertificateRole(i),
			Subject:            cert.Subject.String(),
			Issuer:             cert.Issuer.String(),
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKey:          keyDescription(cert.PublicKey),
			Fingerprint:        pub.Fingerprint,
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
		}
	}

	return json.MarshalIndent(data, "", "  ")
}

// RenderPEM re-encodes the bundle as PEM certificate blocks, leaf first.
// DER and PKCS7 input come out as a plain PEM bundle.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderPEM() []byte {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.EncodeMultiplePEM(ch.Certs)
}

// getCertificateRole determines the role of a certificate in the chain.
//
// Parameters:
//   - index: Zero-based position of the certificate in the chain
//
// Returns:
//   - string: Role description
func (ch *Chain) getCertificateRole(index int) string {
	total := len(ch.Certs)
	last := ch.Certs[total-1]
	switch {
	case total == 1 && ch.IsSelfSigned(last):
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity (Server/Leaf) Certificate"
	case index == total-1 && ch.hasRoot():
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

func keyDescription(pub any) string {
	info, err := x509engine.Fingerprint(pub)
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%d-bit %s", info.Bits, info.Algorithm)
}

func linkStatus(links []Link, index int) string {
	if index >= len(links) {
		return "-"
	}
	l := links[index]
	switch {
	case l.OK():
		return "ok"
	case !l.NameMatch:
		return "issuer mismatch"
	default:
		return "bad signature"
	}
}

func brokenIndexes(links []Link) map[int]bool {
	out := make(map[int]bool, len(links))
	for _, l := range links {
		out[l.Index] = true
	}
	return out
}
