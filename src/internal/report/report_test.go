// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/audit"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/report"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
	x509name "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/name"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

func mustDN(t *testing.T, s string) x509name.DN {
	t.Helper()
	dn, err := x509name.Parse(s)
	require.NoError(t, err)
	return dn
}

// sampleReport builds a report with one OK, one NG and one Insufficient unit.
func sampleReport(t *testing.T) *audit.Report {
	t.Helper()
	expiry := time.Date(2027, 1, 16, 0, 0, 0, 0, time.UTC)

	okResults := []verify.MatchResult{
		verify.Compare(verify.CertKey, "/new/acme/web01/server.crt", "RSA:aa", "/new/acme/web01/server.key", "RSA:aa"),
	}
	ngResults := []verify.MatchResult{
		verify.Compare(verify.CertKey, "/new/acme/web02/fullchain.pem", "RSA:aa", "/new/acme/web02/privkey.pem", "RSA:bb"),
	}

	rep := &audit.Report{
		RunID:  "run-1",
		Engine: "native",
		Trees: []audit.TreeReport{
			{Name: "old", Root: "/old", Missing: true},
			{
				Name: "new",
				Root: "/new",
				Orgs: []audit.OrgReport{
					{
						Name: "acme",
						Path: "/new/acme",
						Servers: []audit.ServerReport{
							{
								Name: "web01",
								Path: "/new/acme/web01",
								Certificates: []audit.CertificateReport{{
									CertificateArtifact: &x509probe.CertificateArtifact{
										Path:     "/new/acme/web01/server.crt",
										Subject:  mustDN(t, "CN=web01.example.com"),
										Issuer:   mustDN(t, "CN=Intermediate-A,O=Test PKI"),
										NotAfter: expiry,
									},
									Completeness: x509chain.SingleCertNeedsMerge,
									ChainStatus:  audit.ChainResolved,
									Intermediate: "/intermediates/intermediate.crt",
									DaysLeft:     20,
									ExpiringSoon: true,
								}},
								Keys: []*x509probe.KeyArtifact{{
									Path:          "/new/acme/web01/server.key",
									Encrypted:     true,
									PublicKey:     x509engine.PublicKeyInfo{Algorithm: "RSA", Bits: 2048, Fingerprint: "RSA:aa"},
									DecryptedWith: "/new/acme/passphrase.txt",
									Attempts:      2,
								}},
								Results: okResults,
								Summary: verify.Summarize(okResults),
							},
							{
								Name: "web02",
								Path: "/new/acme/web02",
								Certificates: []audit.CertificateReport{{
									CertificateArtifact: &x509probe.CertificateArtifact{
										Path:     "/new/acme/web02/fullchain.pem",
										Subject:  mustDN(t, "CN=web02.example.com"),
										Issuer:   mustDN(t, "CN=Intermediate-A,O=Test PKI"),
										NotAfter: expiry.AddDate(0, 1, 0),
									},
									Completeness: x509chain.FullchainGuess,
									ChainStatus:  audit.ChainBroken,
									ChainError:   "issuer mismatch at 0",
									DaysLeft:     50,
								}},
								Results: ngResults,
								Summary: verify.Summarize(ngResults),
							},
						},
					},
					{
						Name:   "globex",
						Path:   "/new/globex",
						Errors: []string{"orgtree: permission denied"},
						Servers: []audit.ServerReport{
							{
								Name:    "(root)",
								Path:    "/new/globex",
								Summary: verify.Summarize(nil),
								Errors:  []string{"x509probe: unsupported format: /new/globex/broken.crt"},
							},
						},
					},
				},
			},
		},
		Totals: audit.Totals{Servers: 3, OK: 1, NG: 1, Insufficient: 1, ProbeErrors: 2, ChainIssues: 1, ExpiringSoon: 1},
	}
	return rep
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    report.Format
		wantErr bool
	}{
		{in: "text", want: report.FormatText},
		{in: " Table ", want: report.FormatTable},
		{in: "JSON", want: report.FormatJSON},
		{in: "xml", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := report.ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, report.ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "Total: 4  OK: 2  NG: 1  Insufficient: 1",
		report.SummaryLine(audit.Totals{Servers: 4, OK: 2, NG: 1, Insufficient: 1}))
	assert.Equal(t, "Total: 0  OK: 0  NG: 0  Insufficient: 0", report.SummaryLine(audit.Totals{}))
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Text(&buf, sampleReport(t), report.Options{NoColor: true}))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "no ANSI escapes with colour disabled")

	for _, want := range []string{
		"Run run-1 (engine native)",
		"== old: /old (not found, skipped) ==",
		"== new: /new ==",
		"[OK] acme/web01 (1 comparisons)",
		"[NG] acme/web02 (1 comparisons)",
		"[Insufficient] globex/(root) (0 comparisons)",
		"cert  server.crt  CN=web01.example.com",
		"issuer  CN=Intermediate-A,O=Test PKI",
		"expires 2027-01-16 (20 days left)",
		"chain   resolved (single-cert-needs-merge) via /intermediates/intermediate.crt",
		"key   server.key  2048-bit RSA  decrypted with /new/acme/passphrase.txt after 2 attempt(s)",
		"cert-key server.crt <-> server.key: match",
		"cert-key fullchain.pem <-> privkey.pem: mismatch",
		"chain   broken (fullchain-guess): issuer mismatch at 0",
		"[ERROR] globex: orgtree: permission denied",
		"error x509probe: unsupported format: /new/globex/broken.crt",
		"Errors: 2  Chain issues: 1  Expired: 0  Expiring soon: 1",
	} {
		assert.Contains(t, out, want)
	}

	assert.True(t, strings.HasSuffix(out, "Total: 3  OK: 1  NG: 1  Insufficient: 1\nErrors: 2  Chain issues: 1  Expired: 0  Expiring soon: 1\n"))
	assert.Less(t, strings.Index(out, "acme/web01"), strings.Index(out, "acme/web02"), "report order is preserved")
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Table(&buf, sampleReport(t)))
	out := buf.String()

	for _, want := range []string{"web01", "resolved", "2027-01-16 (soon)", "broken", "(root)", "Insufficient"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 3, strings.Count(out, "| new"), "one row per server unit")
	assert.Contains(t, out, "Total: 3  OK: 1  NG: 1  Insufficient: 1\n")

	buf.Reset()
	require.NoError(t, report.Table(&buf, &audit.Report{}))
	assert.Equal(t, "No server units found\nTotal: 0  OK: 0  NG: 0  Insufficient: 0\n", buf.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.JSON(&buf, sampleReport(t)))

	var decoded struct {
		RunID  string `json:"runId"`
		Totals struct {
			NG int `json:"ng"`
		} `json:"totals"`
		Trees []struct {
			Missing bool `json:"missing"`
			Orgs    []struct {
				Servers []struct {
					Summary struct {
						Verdict string `json:"verdict"`
					} `json:"summary"`
				} `json:"servers"`
			} `json:"orgs"`
		} `json:"trees"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 1, decoded.Totals.NG)
	require.Len(t, decoded.Trees, 2)
	assert.True(t, decoded.Trees[0].Missing)
	assert.Equal(t, "NG", decoded.Trees[1].Orgs[0].Servers[1].Summary.Verdict)
	assert.Contains(t, buf.String(), "\n  \"runId\"", "output is indented")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender(t *testing.T) {
	rep := sampleReport(t)
	for _, f := range report.Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, report.Render(&buf, rep, f, report.Options{NoColor: true}))
			assert.NotEmpty(t, buf.String())

			assert.Error(t, report.Render(failingWriter{}, rep, f, report.Options{NoColor: true}))
		})
	}

	assert.ErrorIs(t, report.Render(&bytes.Buffer{}, rep, "xml", report.Options{}), report.ErrUnknownFormat)
}
