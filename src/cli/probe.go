// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/secret"
)

func newProbeCommand(g *globalFlags) *cobra.Command {
	var passphraseFiles []string
	cmd := &cobra.Command{
		Use:   "probe FILE",
		Short: "Print what a certificate, key or CSR file contains, as JSON",
		Long: `Print what a certificate, key or CSR file contains, as JSON.

An encrypted key is tried with every passphrase of the --passphrase-file
files, in order. Passphrases are never printed; the file that worked is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prober, cfg, err := g.prober()
			if err != nil {
				return err
			}

			files := passphraseFiles
			if len(files) == 0 {
				if fallback := cfg.PassphraseEnvFallback(); fallback != "" {
					files = []string{fallback}
				}
			}
			passphrases, err := secret.LoadFiles(files)
			defer secret.WipeAll(passphrases)
			if err != nil {
				return err
			}

			probed, probeErr := prober.ProbeFile(args[0], passphrases)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(probed); err != nil {
				return err
			}
			return probeErr
		},
	}

	cmd.Flags().StringArrayVar(&passphraseFiles, "passphrase-file", nil, "passphrase file, one passphrase per line (repeatable)")
	return cmd
}
