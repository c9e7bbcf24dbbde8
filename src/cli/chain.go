// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/gc"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
)

// autoIntermediate makes merge resolve the intermediate itself.
const autoIntermediate = "auto"

// ErrUnknownView is returned by "chain show" for a view other than tree, table, json or pem.
var ErrUnknownView = errors.New("cli: unknown chain view")

type chainFlags struct {
	searchRoots  []string
	patterns     []string
	intermediate string
	root         string
	skipIfMerged bool
	output       string
	view         string
}

func newChainCommand(g *globalFlags) *cobra.Command {
	f := &chainFlags{}
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Resolve, classify, merge and display certificate chains",
	}

	resolve := &cobra.Command{
		Use:   "resolve LEAF",
		Short: "Find the intermediate that issued LEAF",
		Long: `Find the intermediate whose subject equals the issuer of LEAF.

Certificates next to LEAF whose names match the chain patterns are searched
first, then the --search directories. Exactly one match is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			match, err := resolveIntermediate(cmd, g, f, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", match.Path, match.Subject)
			return nil
		},
	}

	classify := &cobra.Command{
		Use:   "classify FILE",
		Short: "Tell whether FILE is a single certificate or a fullchain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := gc.ReadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), x509chain.ClassifyBytes(data))
			return nil
		},
	}

	merge := &cobra.Command{
		Use:   "merge LEAF",
		Short: "Concatenate LEAF, its intermediate and an optional root into one PEM bundle",
		Long: `Concatenate LEAF, its intermediate and an optional root into one PEM bundle.

Use --intermediate auto to resolve the intermediate the same way "chain
resolve" does. With --skip-if-merged a LEAF that already holds several
certificates is written out unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, g, f, args[0])
		},
	}

	show := &cobra.Command{
		Use:   "show FILE",
		Short: "Display the certificates of FILE and their issuer links",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, g, f, args[0])
		},
	}

	for _, c := range []*cobra.Command{resolve, merge} {
		c.Flags().StringArrayVar(&f.searchRoots, "search", nil, "directory searched for intermediate certificates (repeatable; default: from config)")
		c.Flags().StringArrayVar(&f.patterns, "pattern", nil, "file name glob of intermediate candidates (repeatable; default: from config)")
	}
	merge.Flags().StringVar(&f.intermediate, "intermediate", "", `intermediate certificate file, or "auto"`)
	merge.Flags().StringVar(&f.root, "root", "", "root certificate appended last")
	merge.Flags().BoolVar(&f.skipIfMerged, "skip-if-merged", false, "keep a LEAF that already holds a chain")
	merge.Flags().StringVarP(&f.output, "output", "o", "", "write the bundle to this file (default: stdout)")
	_ = merge.MarkFlagRequired("intermediate")
	show.Flags().StringVar(&f.view, "view", "tree", "tree, table, json or pem")

	cmd.AddCommand(resolve, classify, merge, show)
	return cmd
}

// resolveIntermediate resolves the intermediate of leafPath, searching the
// leaf's own directory before the configured search roots.
func resolveIntermediate(cmd *cobra.Command, g *globalFlags, f *chainFlags, leafPath string) (*x509probe.CertificateArtifact, error) {
	prober, cfg, err := g.prober()
	if err != nil {
		return nil, err
	}

	search, patterns := cfg.Chain.SearchRoots, cfg.Chain.Patterns
	if cmd.Flags().Changed("search") {
		search = f.searchRoots
	}
	if cmd.Flags().Changed("pattern") {
		patterns = f.patterns
	}

	leaf, err := prober.ProbeCertificate(leafPath)
	if err != nil {
		return nil, err
	}

	match, errs, err := x509chain.LocateIntermediate(prober, leaf, search, patterns)
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
	}
	return match, err
}

func runMerge(cmd *cobra.Command, g *globalFlags, f *chainFlags, leafPath string) error {
	leaf, err := gc.ReadFile(leafPath)
	if err != nil {
		return err
	}

	interPath := f.intermediate
	if interPath == autoIntermediate {
		interPath = ""
		// A fullchain leaf kept by --skip-if-merged needs no intermediate.
		if !f.skipIfMerged || x509chain.ClassifyBytes(leaf) != x509chain.FullchainGuess {
			match, err := resolveIntermediate(cmd, g, f, leafPath)
			if err != nil {
				return err
			}
			interPath = match.Path
		}
	}

	var inter []byte
	if interPath != "" {
		if inter, err = gc.ReadFile(interPath); err != nil {
			return err
		}
	}

	var root []byte
	if f.root != "" {
		if root, err = gc.ReadFile(f.root); err != nil {
			return err
		}
	}

	bundle, err := x509chain.MergeChain(leaf, inter, root, f.skipIfMerged)
	if err != nil {
		return err
	}
	return writeOutput(cmd, f.output, bundle)
}

func runShow(cmd *cobra.Command, g *globalFlags, f *chainFlags, path string) error {
	prober, _, err := g.prober()
	if err != nil {
		return err
	}
	art, err := prober.ProbeCertificate(path)
	if err != nil {
		return err
	}

	ch := x509chain.New(art.Certs...)
	out := cmd.OutOrStdout()
	switch f.view {
	case "tree":
		_, err = io.WriteString(out, ch.RenderASCIITree())
	case "table":
		_, err = io.WriteString(out, ch.RenderTable())
	case "json":
		var raw []byte
		if raw, err = ch.ToVisualizationJSON(); err == nil {
			_, err = fmt.Fprintln(out, string(raw))
		}
	case "pem":
		_, err = out.Write(ch.RenderPEM())
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownView, f.view)
	}
	return err
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
