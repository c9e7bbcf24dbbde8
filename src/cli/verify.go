// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/audit"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/metrics"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/report"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/verify"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

type verifyFlags struct {
	oldRoot        string
	newRoot        string
	format         string
	passphraseFile string
	searchRoots    []string
	workers        int
	warnDays       int
	metricsFile    string
	noColor        bool
}

func newVerifyCommand(g *globalFlags, log logger.Logger) *cobra.Command {
	f := &verifyFlags{}
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify every server unit of the old and new trees",
		Long: `Walk the old and new trees, probe every certificate, key and CSR,
resolve intermediates and cross-compare public keys.

Each server unit gets one verdict: OK when every comparison matched, NG when
any did not, Insufficient when nothing could be compared. The command exits
non-zero when any unit is NG.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, g, f, log)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.oldRoot, "old", "", "old tree root (default: from config, ./old)")
	fl.StringVar(&f.newRoot, "new", "", "new tree root (default: from config, ./new)")
	fl.StringVarP(&f.format, "format", "f", "", "output format: text, table or json (default: from config, text)")
	fl.StringVar(&f.passphraseFile, "passphrase-file", "", "passphrase file tried before the per-organization files")
	fl.StringArrayVar(&f.searchRoots, "search", nil, "directory searched for intermediate certificates (repeatable)")
	fl.IntVar(&f.workers, "workers", 0, "organizations audited in parallel (default: from config, 4)")
	fl.IntVar(&f.warnDays, "warn-days", 0, "flag certificates expiring within this many days")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	fl.BoolVar(&f.noColor, "no-color", false, "disable coloured output")
	return cmd
}

func runVerify(cmd *cobra.Command, g *globalFlags, f *verifyFlags, log logger.Logger) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	fl := cmd.Flags()
	if fl.Changed("old") {
		cfg.Roots.Old = f.oldRoot
	}
	if fl.Changed("new") {
		cfg.Roots.New = f.newRoot
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fl.Changed("passphrase-file") {
		cfg.Passphrase.OverridePath = f.passphraseFile
	}
	if fl.Changed("search") {
		cfg.Chain.SearchRoots = f.searchRoots
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("warn-days") {
		cfg.Output.WarnDays = f.warnDays
	}
	if fl.Changed("metrics-file") {
		cfg.Output.MetricsFile = f.metricsFile
	}
	if f.noColor {
		cfg.Output.NoColor = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	auditor, err := audit.NewFromConfig(cfg, log)
	if err != nil {
		return err
	}

	rep, err := auditor.Run(cmd.Context())
	if err != nil {
		return err
	}

	if err := report.Render(cmd.OutOrStdout(), rep, format, report.Options{NoColor: cfg.Output.NoColor}); err != nil {
		return err
	}

	if cfg.Output.MetricsFile != "" {
		m := metrics.New()
		m.Observe(rep)
		if err := m.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
		log.Debugf("metrics written to %s", cfg.Output.MetricsFile)
	}

	if rep.Failed() {
		return fmt.Errorf("%w: %d of %d server units are NG", verify.ErrVerificationFailed, rep.Totals.NG, rep.Totals.Servers)
	}
	return nil
}
