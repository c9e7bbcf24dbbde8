// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/audit"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
)

// ErrUnknownFormat is returned for an output format other than text, table or json.
var ErrUnknownFormat = errors.New("report: unknown format")

// Format selects a renderer.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatTable, FormatJSON}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Options tunes the renderers.
type Options struct {
	// NoColor disables colour in text output. Colour is also off whenever
	// fatih/color detects that stdout is not a terminal.
	NoColor bool
}

// Render writes rep to w in the given format.
func Render(w io.Writer, rep *audit.Report, format Format, opts Options) error {
	switch format {
	case FormatText, "":
		return Text(w, rep, opts)
	case FormatTable:
		return Table(w, rep)
	case FormatJSON:
		return JSON(w, rep)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// SummaryLine returns the one-line verdict count of a report.
func SummaryLine(t audit.Totals) string {
	return fmt.Sprintf("Total: %d  OK: %d  NG: %d  Insufficient: %d", t.Servers, t.OK, t.NG, t.Insufficient)
}

// problemLine returns the secondary count line, empty when there is nothing to flag.
func problemLine(t audit.Totals) string {
	if t.ProbeErrors == 0 && t.ChainIssues == 0 && t.Expired == 0 && t.ExpiringSoon == 0 {
		return ""
	}
	return fmt.Sprintf("Errors: %d  Chain issues: %d  Expired: %d  Expiring soon: %d",
		t.ProbeErrors, t.ChainIssues, t.Expired, t.ExpiringSoon)
}

// JSON writes the structured report, indented.
func JSON(w io.Writer, rep *audit.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// Table writes one markdown row per server unit, followed by the summary line.
func Table(w io.Writer, rep *audit.Report) error {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"Tree", "Org", "Server", "Verdict", "Comparisons", "Mismatches", "Chain", "Next Expiry", "Errors"})

	var rows [][]string
	rep.EachServer(func(tree *audit.TreeReport, org *audit.OrgReport, s *audit.ServerReport) {
		rows = append(rows, []string{
			tree.Name,
			org.Name,
			s.Name,
			s.Summary.Verdict.String(),
			strconv.Itoa(s.Summary.ComparisonCount),
			strconv.Itoa(s.Summary.Mismatches),
			chainColumn(s),
			expiryColumn(s),
			strconv.Itoa(len(s.Errors)),
		})
	})

	if len(rows) == 0 {
		buf.WriteString("No server units found\n")
	} else {
		table.Bulk(rows)
		table.Render()
	}

	buf.WriteString(SummaryLine(rep.Totals) + "\n")
	if line := problemLine(rep.Totals); line != "" {
		buf.WriteString(line + "\n")
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// chainColumn lists the distinct chain statuses of the unit's certificates.
func chainColumn(s *audit.ServerReport) string {
	var seen []string
	for _, c := range s.Certificates {
		st := string(c.ChainStatus)
		if st != "" && !slices.Contains(seen, st) {
			seen = append(seen, st)
		}
	}
	if len(seen) == 0 {
		return "-"
	}
	return strings.Join(seen, ", ")
}

// expiryColumn returns the earliest certificate expiry of the unit.
func expiryColumn(s *audit.ServerReport) string {
	var (
		next  time.Time
		state string
	)
	for _, c := range s.Certificates {
		if c.NotAfter.IsZero() {
			continue
		}
		if next.IsZero() || c.NotAfter.Before(next) {
			next = c.NotAfter
			switch {
			case c.Expired:
				state = " (expired)"
			case c.ExpiringSoon:
				state = " (soon)"
			default:
				state = ""
			}
		}
	}
	if next.IsZero() {
		return "-"
	}
	return next.Format(time.DateOnly) + state
}

// palette holds the colours of the text renderer.
type palette struct {
	ok, ng, warn, head *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		ng:   color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		head: color.New(color.FgCyan, color.Bold),
	}
	if noColor {
		for _, c := range []*color.Color{p.ok, p.ng, p.warn, p.head} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) verdict(v verify.Verdict) string {
	tag := "[" + v.String() + "]"
	switch v {
	case verify.VerdictOK:
		return p.ok.Sprint(tag)
	case verify.VerdictNG:
		return p.ng.Sprint(tag)
	default:
		return p.warn.Sprint(tag)
	}
}

// Text writes one block per server unit, followed by run-level errors and the
// summary line.
func Text(w io.Writer, rep *audit.Report, opts Options) error {
	p := newPalette(opts.NoColor)
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s (engine %s)\n", rep.RunID, rep.Engine)
	for _, tree := range rep.Trees {
		if tree.Missing {
			b.WriteString(p.warn.Sprintf("== %s: %s (not found, skipped) ==", tree.Name, tree.Root) + "\n")
			continue
		}
		b.WriteString(p.head.Sprintf("== %s: %s ==", tree.Name, tree.Root) + "\n")
		if len(tree.Orgs) == 0 {
			b.WriteString("  no organizations\n")
		}
		for _, org := range tree.Orgs {
			for _, e := range org.Errors {
				fmt.Fprintf(&b, "%s %s: %s\n", p.ng.Sprint("[ERROR]"), org.Name, e)
			}
			for i := range org.Servers {
				writeServer(&b, p, &org, &org.Servers[i])
			}
		}
	}

	for _, e := range rep.Errors {
		fmt.Fprintf(&b, "%s %s\n", p.ng.Sprint("[ERROR]"), e)
	}

	b.WriteString(SummaryLine(rep.Totals) + "\n")
	if line := problemLine(rep.Totals); line != "" {
		b.WriteString(p.warn.Sprint(line) + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeServer(b *strings.Builder, p palette, org *audit.OrgReport, s *audit.ServerReport) {
	fmt.Fprintf(b, "%s %s/%s (%d comparisons)\n", p.verdict(s.Summary.Verdict), org.Name, s.Name, s.Summary.ComparisonCount)

	for _, c := range s.Certificates {
		writeCertificate(b, p, s.Path, "cert", c)
	}
	for _, c := range s.ChainMaterial {
		writeCertificate(b, p, s.Path, "ca", c)
	}
	for _, k := range s.Keys {
		line := fmt.Sprintf("    key   %s  %s", display(s.Path, k.Path), keyLabel(k.PublicKey.Algorithm, k.PublicKey.Bits))
		if k.DecryptedWith != "" {
			line += fmt.Sprintf("  decrypted with %s after %d attempt(s)", display(s.Path, k.DecryptedWith), k.Attempts)
		}
		b.WriteString(line + "\n")
	}
	for _, r := range s.CSRs {
		fmt.Fprintf(b, "    csr   %s  %s\n", display(s.Path, r.Path), r.Subject)
	}

	for _, r := range s.Results {
		mark := p.ok.Sprint("match")
		if !r.IsMatch {
			mark = p.ng.Sprint(r.Reason.String())
		}
		fmt.Fprintf(b, "    %-8s %s <-> %s: %s\n", r.Kind, display(s.Path, r.FileA), display(s.Path, r.FileB), mark)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(b, "    %s %s\n", p.ng.Sprint("error"), e)
	}
}

func writeCertificate(b *strings.Builder, p palette, base, label string, c audit.CertificateReport) {
	fmt.Fprintf(b, "    %-5s %s  %s\n", label, display(base, c.Path), c.Subject)
	if c.Subject.IsEmpty() {
		return
	}
	fmt.Fprintf(b, "          issuer  %s\n", c.Issuer)

	expiry := fmt.Sprintf("%s (%d days left)", c.NotAfter.Format(time.DateOnly), c.DaysLeft)
	switch {
	case c.Expired:
		expiry = p.ng.Sprintf("%s (expired)", c.NotAfter.Format(time.DateOnly))
	case c.ExpiringSoon:
		expiry = p.warn.Sprint(expiry)
	}
	fmt.Fprintf(b, "          expires %s\n", expiry)

	if c.ChainStatus == "" {
		return
	}
	chain := fmt.Sprintf("%s (%s)", c.ChainStatus, c.Completeness)
	if c.Intermediate != "" {
		chain += " via " + display(base, c.Intermediate)
	}
	if c.ChainStatus.IsProblem() {
		chain = p.ng.Sprint(chain)
		if c.ChainError != "" {
			chain += ": " + c.ChainError
		}
	}
	fmt.Fprintf(b, "          chain   %s\n", chain)
}

// display shortens path relative to the server directory when it lives inside it.
func display(base, path string) string {
	if base == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func keyLabel(algorithm string, bits int) string {
	switch {
	case algorithm == "":
		return "unknown key"
	case bits > 0:
		return fmt.Sprintf("%d-bit %s", bits, algorithm)
	default:
		return algorithm
	}
}
