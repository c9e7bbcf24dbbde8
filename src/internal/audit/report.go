// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package audit

import (
	"slices"
	"time"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

// ChainStatus summarizes the chain state of one certificate file.
type ChainStatus string

const (
	// ChainComplete is a fullchain file whose links all check out.
	ChainComplete ChainStatus = "complete"
	// ChainResolved is a single certificate whose intermediate was found.
	ChainResolved ChainStatus = "resolved"
	// ChainUnresolved is a single certificate with no, or several, matching intermediates.
	ChainUnresolved ChainStatus = "unresolved"
	// ChainBroken is a chain with an issuer mismatch or a bad signature.
	ChainBroken ChainStatus = "broken"
	// ChainSelfSigned is a self-signed certificate; there is nothing to resolve.
	ChainSelfSigned ChainStatus = "self-signed"
	// ChainUnknown is a DER or PKCS7 file, or one that failed to probe.
	ChainUnknown ChainStatus = "unknown"
)

// IsProblem reports whether the status needs operator attention.
func (s ChainStatus) IsProblem() bool {
	return s == ChainUnresolved || s == ChainBroken
}

// Report is the result of one [Auditor.Run].
type Report struct {
	RunID      string       `json:"runId"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
	Engine     string       `json:"engine"`
	Trees      []TreeReport `json:"trees"`
	// Candidates are the global intermediate candidates that probed cleanly.
	Candidates []string `json:"candidates,omitempty"`
	// Errors are run-level problems such as unreadable candidates.
	Errors []string `json:"errors,omitempty"`
	Totals Totals   `json:"totals"`
}

// TreeReport covers one scan root.
type TreeReport struct {
	Name    string      `json:"name"`
	Root    string      `json:"root"`
	Missing bool        `json:"missing,omitempty"`
	Orgs    []OrgReport `json:"orgs,omitempty"`
}

// OrgReport covers one organization.
type OrgReport struct {
	Name    string         `json:"name"`
	Path    string         `json:"path"`
	Servers []ServerReport `json:"servers,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// ServerReport covers one server unit. Every unit carries exactly one verdict,
// in Summary.Verdict.
type ServerReport struct {
	Name          string                   `json:"name"`
	Path          string                   `json:"path"`
	Certificates  []CertificateReport      `json:"certificates,omitempty"`
	ChainMaterial []CertificateReport      `json:"chainMaterial,omitempty"`
	Keys          []*x509probe.KeyArtifact `json:"keys,omitempty"`
	CSRs          []*x509probe.CsrArtifact `json:"csrs,omitempty"`
	Results       []verify.MatchResult     `json:"results"`
	Summary       verify.Summary           `json:"summary"`
	Errors        []string                 `json:"errors,omitempty"`
}

func (s *ServerReport) addError(err error) {
	if err != nil {
		s.Errors = append(s.Errors, err.Error())
	}
}

// CertificateReport is a probed certificate plus its chain and expiry status.
type CertificateReport struct {
	*x509probe.CertificateArtifact

	Completeness x509chain.Completeness `json:"completeness"`
	ChainStatus  ChainStatus            `json:"chainStatus"`
	Intermediate string                 `json:"intermediate,omitempty"`
	ChainError   string                 `json:"chainError,omitempty"`

	DaysLeft     int  `json:"daysLeft"`
	Expired      bool `json:"expired,omitempty"`
	ExpiringSoon bool `json:"expiringSoon,omitempty"`
}

// Totals counts server units by verdict and the problems found.
type Totals struct {
	Servers      int `json:"servers"`
	OK           int `json:"ok"`
	NG           int `json:"ng"`
	Insufficient int `json:"insufficient"`
	ProbeErrors  int `json:"probeErrors"`
	ChainIssues  int `json:"chainIssues"`
	Expired      int `json:"expired"`
	ExpiringSoon int `json:"expiringSoon"`
}

// Failed reports whether any server unit is [verify.VerdictNG].
func (r *Report) Failed() bool { return r.Totals.NG > 0 }

// EachServer calls fn for every server unit in report order.
func (r *Report) EachServer(fn func(tree *TreeReport, org *OrgReport, server *ServerReport)) {
	for i := range r.Trees {
		t := &r.Trees[i]
		for j := range t.Orgs {
			o := &t.Orgs[j]
			for k := range o.Servers {
				fn(t, o, &o.Servers[k])
			}
		}
	}
}

func (r *Report) computeTotals() {
	var t Totals
	r.EachServer(func(_ *TreeReport, _ *OrgReport, s *ServerReport) {
		t.Servers++
		switch s.Summary.Verdict {
		case verify.VerdictOK:
			t.OK++
		case verify.VerdictNG:
			t.NG++
		default:
			t.Insufficient++
		}
		t.ProbeErrors += len(s.Errors)
		for _, c := range slices.Concat(s.Certificates, s.ChainMaterial) {
			if c.ChainStatus.IsProblem() {
				t.ChainIssues++
			}
			if c.Expired {
				t.Expired++
			}
			if c.ExpiringSoon {
				t.ExpiringSoon++
			}
		}
	})
	for _, tr := range r.Trees {
		for _, o := range tr.Orgs {
			t.ProbeErrors += len(o.Errors)
		}
	}
	t.ProbeErrors += len(r.Errors)
	r.Totals = t
}
