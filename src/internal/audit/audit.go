// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package audit

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/orgtree"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/secret"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

// Tree is one scan root.
type Tree struct {
	Name     string
	Root     string
	Required bool
}

// Options configures an [Auditor].
type Options struct {
	Trees []Tree

	// OldRoot is searched for passphrase files of matching org and server directories.
	OldRoot string

	PassphraseFile        string
	PassphraseOverride    string
	PassphraseEnvFallback string

	ChainSearchRoots []string
	ChainPatterns    []string

	// Workers bounds concurrently audited organizations; values below 1 mean 1.
	Workers int
	// WarnDays flags certificates expiring within that many days; 0 disables.
	WarnDays int

	// Now defaults to [time.Now].
	Now func() time.Time
}

// OptionsFromConfig maps a loaded configuration to [Options]. Trees with an
// empty root are left out.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		OldRoot:               cfg.Roots.Old,
		PassphraseFile:        cfg.Passphrase.FileName,
		PassphraseOverride:    cfg.Passphrase.OverridePath,
		PassphraseEnvFallback: cfg.PassphraseEnvFallback(),
		ChainSearchRoots:      cfg.Chain.SearchRoots,
		ChainPatterns:         cfg.Chain.Patterns,
		Workers:               cfg.Workers,
		WarnDays:              cfg.Output.WarnDays,
	}
	for _, t := range []Tree{
		{Name: config.TreeOld, Root: cfg.Roots.Old},
		{Name: config.TreeNew, Root: cfg.Roots.New},
	} {
		if t.Root == "" {
			continue
		}
		t.Required = cfg.IsRequired(t.Name)
		opts.Trees = append(opts.Trees, t)
	}
	return opts
}

// Auditor walks certificate trees and verifies every server unit.
//
// Thread Safety: Run may be called concurrently when the engine allows it.
type Auditor struct {
	prober *x509probe.Prober
	opts   Options
	log    logger.Logger
}

// New creates an Auditor.
//
// Parameters:
//   - prober: Prober wrapping the crypto engine
//   - opts: Run options
//   - log: Logger; nil means silent
func New(prober *x509probe.Prober, opts Options, log logger.Logger) *Auditor {
	if log == nil {
		log = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Auditor{prober: prober, opts: opts, log: log}
}

// NewFromConfig builds the engine named in cfg and an Auditor around it.
//
// Returns:
//   - *Auditor: Ready auditor
//   - error: [x509engine.ErrEngineUnavailable] or [x509engine.ErrUnknownEngine]
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Auditor, error) {
	eng, err := x509engine.New(cfg.Engine.Kind, cfg.Engine.OpenSSLPath)
	if err != nil {
		return nil, err
	}
	return New(x509probe.New(eng), OptionsFromConfig(cfg), log), nil
}

// Run audits every configured tree.
//
// Parameters:
//   - ctx: Cancelling ctx stops the run between server units
//
// Returns:
//   - *Report: Full report; nil on error
//   - error: [orgtree.ErrRootNotFound] for a missing required tree, or ctx.Err()
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: a.opts.Now().UTC(),
		Engine:    a.prober.Engine().Name(),
	}

	candidates, errs := x509chain.FindChainCandidates(a.prober, a.opts.ChainSearchRoots, a.opts.ChainPatterns)
	for _, err := range errs {
		report.Errors = append(report.Errors, err.Error())
	}
	for _, c := range candidates {
		report.Candidates = append(report.Candidates, c.Path)
	}
	a.log.Debugf("run %s: %d global chain candidates", report.RunID, len(candidates))

	for _, tree := range a.opts.Trees {
		tr, err := a.auditTree(ctx, tree, candidates)
		if err != nil {
			return nil, err
		}
		report.Trees = append(report.Trees, tr)
	}

	report.FinishedAt = a.opts.Now().UTC()
	report.computeTotals()
	return report, nil
}

func (a *Auditor) auditTree(ctx context.Context, tree Tree, candidates []*x509probe.CertificateArtifact) (TreeReport, error) {
	tr := TreeReport{Name: tree.Name, Root: tree.Root}

	orgs, err := orgtree.EnumerateOrgs(tree.Root)
	if errors.Is(err, orgtree.ErrRootNotFound) && !tree.Required {
		a.log.Printf("%s tree not found at %s, skipping", tree.Name, tree.Root)
		tr.Missing = true
		return tr, nil
	}
	if err != nil {
		return tr, fmt.Errorf("%s tree: %w", tree.Name, err)
	}

	layout := orgtree.Layout{
		ScanRoot:     tree.Root,
		OldRoot:      a.opts.OldRoot,
		OverridePath: a.opts.PassphraseOverride,
		EnvFallback:  a.opts.PassphraseEnvFallback,
		FileName:     a.opts.PassphraseFile,
	}

	tr.Orgs = make([]OrgReport, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i := range orgs {
		g.Go(func() error {
			var err error
			tr.Orgs[i], err = a.auditOrg(gctx, layout, orgs[i], candidates)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return tr, err
	}
	return tr, nil
}

func (a *Auditor) auditOrg(ctx context.Context, layout orgtree.Layout, org orgtree.OrgUnit, candidates []*x509probe.CertificateArtifact) (OrgReport, error) {
	rep := OrgReport{Name: org.Name, Path: org.Path}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	if err := orgtree.LoadOrg(&org); err != nil {
		rep.Errors = append(rep.Errors, err.Error())
	}

	for _, server := range org.Servers {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sr := a.auditServer(layout, server, candidates)
		a.log.Debugf("%s/%s: %s (%d comparisons)", org.Name, server.Name, sr.Summary.Verdict, sr.Summary.ComparisonCount)
		rep.Servers = append(rep.Servers, sr)
	}
	return rep, nil
}

func (a *Auditor) auditServer(layout orgtree.Layout, server orgtree.ServerUnit, global []*x509probe.CertificateArtifact) ServerReport {
	sr := ServerReport{Name: server.Name, Path: server.Path}

	for _, path := range server.Keys {
		sr.Keys = append(sr.Keys, a.probeKey(&sr, layout, server.Path, path))
	}

	for _, path := range server.CSRs {
		r, err := a.prober.ProbeCSR(path)
		sr.addError(err)
		sr.CSRs = append(sr.CSRs, r)
	}

	owned := make(map[string]struct{}, len(sr.Keys)+len(sr.CSRs))
	for _, k := range sr.Keys {
		owned[k.Fingerprint()] = struct{}{}
	}
	for _, r := range sr.CSRs {
		owned[r.Fingerprint()] = struct{}{}
	}
	delete(owned, "")

	var leaves, local []*x509probe.CertificateArtifact
	for _, path := range server.Certificates {
		art, err := a.prober.ProbeCertificate(path)
		sr.addError(err)
		if _, ok := owned[art.Fingerprint()]; art.IsCA && !ok {
			local = append(local, art)
			continue
		}
		leaves = append(leaves, art)
	}

	for _, art := range local {
		cr := a.describe(art)
		cr.Completeness = x509chain.ClassifyChainCompleteness(art)
		cr.ChainStatus = ChainUnknown
		if art.SelfSigned {
			cr.ChainStatus = ChainSelfSigned
		}
		sr.ChainMaterial = append(sr.ChainMaterial, cr)
	}
	for _, art := range leaves {
		cr := a.describe(art)
		a.checkChain(&cr, local, global)
		sr.Certificates = append(sr.Certificates, cr)
	}

	sr.Results = verify.CrossCompare(leaves, sr.Keys, sr.CSRs)
	sr.Summary = verify.Summarize(sr.Results)
	return sr
}

// probeKey loads the passphrases of the unit for this key only and wipes
// them before returning.
func (a *Auditor) probeKey(sr *ServerReport, layout orgtree.Layout, serverPath, path string) *x509probe.KeyArtifact {
	passphrases, err := orgtree.LoadPassphrases(layout, serverPath)
	defer secret.WipeAll(passphrases)
	sr.addError(err)

	k, err := a.prober.ProbeKey(path, passphrases)
	sr.addError(err)
	if k.DecryptedWith != "" {
		a.log.Debugf("%s: decrypted with passphrase from %s after %d attempts", path, k.DecryptedWith, k.Attempts)
	}
	return k
}

// describe fills the expiry fields of a certificate.
func (a *Auditor) describe(art *x509probe.CertificateArtifact) CertificateReport {
	cr := CertificateReport{CertificateArtifact: art}
	if art.NotAfter.IsZero() {
		return cr
	}

	now := a.opts.Now()
	cr.DaysLeft = int(math.Floor(art.NotAfter.Sub(now).Hours() / 24))
	cr.Expired = now.After(art.NotAfter)
	cr.ExpiringSoon = !cr.Expired && a.opts.WarnDays > 0 && cr.DaysLeft < a.opts.WarnDays
	return cr
}

// checkChain sets the chain fields of a leaf certificate. Intermediates are
// looked up in the unit's own chain material first, then in the global pool.
func (a *Auditor) checkChain(cr *CertificateReport, local, global []*x509probe.CertificateArtifact) {
	art := cr.CertificateArtifact
	cr.Completeness = x509chain.ClassifyChainCompleteness(art)

	switch {
	case art.Subject.IsEmpty() && art.Fingerprint() == "":
		cr.ChainStatus = ChainUnknown
	case art.SelfSigned:
		cr.ChainStatus = ChainSelfSigned
	case cr.Completeness == x509chain.FullchainGuess:
		a.checkLinks(cr)
	case cr.Completeness == x509chain.SingleCertNeedsMerge:
		a.resolve(cr, local, global)
	default:
		cr.ChainStatus = ChainUnknown
	}
}

func (a *Auditor) checkLinks(cr *CertificateReport) {
	ch := x509chain.New(cr.Certs...)
	broken := ch.BrokenLinks()
	if len(broken) == 0 {
		// expiry is reported on its own
		if err := ch.VerifyChain(); err != nil && !isExpired(err) {
			cr.ChainStatus = ChainBroken
			cr.ChainError = fmt.Sprintf("bundle does not verify against its last certificate: %v", err)
			return
		}
		cr.ChainStatus = ChainComplete
		return
	}

	l := broken[0]
	cr.ChainStatus = ChainBroken
	if !l.NameMatch {
		cr.ChainError = fmt.Sprintf("certificate %d issuer %q does not match next subject %q", l.Index+1, l.Issuer, l.NextSubject)
	} else {
		cr.ChainError = fmt.Sprintf("certificate %d is not signed by certificate %d", l.Index+1, l.Index+2)
	}
}

func (a *Auditor) resolve(cr *CertificateReport, local, global []*x509probe.CertificateArtifact) {
	art := cr.CertificateArtifact

	match, err := x509chain.ResolveIntermediateIn(art, local, global)
	if err != nil {
		cr.ChainStatus = ChainUnresolved
		cr.ChainError = err.Error()
		return
	}

	cr.Intermediate = match.Path
	cr.ChainStatus = ChainResolved
	if len(art.Certs) > 0 && len(match.Certs) > 0 {
		if err := art.Certs[0].CheckSignatureFrom(match.Certs[0]); err != nil {
			cr.ChainStatus = ChainBroken
			cr.ChainError = fmt.Sprintf("%s matches the issuer name but did not sign the certificate: %v", match.Path, err)
		}
	}
}

func isExpired(err error) bool {
	var invalid x509.CertificateInvalidError
	return errors.As(err, &invalid) && invalid.Reason == x509.Expired
}
