// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/posix"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile  string
	engine      string
	opensslPath string
	verbose     bool
}

// Execute runs the root command with os.Args.
//
// Parameters:
//   - ctx: Cancelling ctx stops a running verification
//   - version: Version string shown by --version
//   - log: Logger for progress and debug messages
//
// Returns:
//   - error: [verify.ErrVerificationFailed] when any server unit is NG, or the
//     structural error that stopped the command
func Execute(ctx context.Context, version string, log logger.Logger) error {
	cmd := NewRootCommand(version, log)
	cmd.SetArgs(os.Args[1:])
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Output goes to the command's out
// writer, so callers can redirect it with SetOut.
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.Discard()
	}

	g := &globalFlags{}
	root := &cobra.Command{
		Use:           posix.GetExecutableName(),
		Short:         "Verify that certificates, keys and CSRs of every server belong together",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetVerbose(g.verbose)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "configuration file, JSON or YAML (default: $"+config.EnvConfigFile+")")
	pf.StringVar(&g.engine, "engine", "", "crypto engine: native or openssl (default: from config)")
	pf.StringVar(&g.opensslPath, "openssl-path", "", "openssl binary used by the openssl engine")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "print debug messages to stderr")

	root.AddCommand(
		newVerifyCommand(g, log),
		newChainCommand(g),
		newProbeCommand(g),
	)
	return root
}

// loadConfig loads the configuration and applies the global flags on top.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, err
	}
	if g.engine != "" {
		cfg.Engine.Kind = g.engine
	}
	if g.opensslPath != "" {
		cfg.Engine.OpenSSLPath = g.opensslPath
	}
	return cfg, nil
}

// prober builds a prober around the configured engine.
func (g *globalFlags) prober() (*x509probe.Prober, *config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	eng, err := x509engine.New(cfg.Engine.Kind, cfg.Engine.OpenSSLPath)
	if err != nil {
		return nil, nil, fmt.Errorf("engine %q: %w", cfg.Engine.Kind, err)
	}
	return x509probe.New(eng), cfg, nil
}
