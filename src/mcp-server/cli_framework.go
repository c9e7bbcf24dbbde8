// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/posix"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

// NewRootCommand builds the command that starts the MCP server.
//
// Without arguments the command serves the tools over stdio. With
// [gopls-style] --instructions it prints the instructions sent to clients
// and exits.
//
// Parameters:
//   - version: Version reported by --version and during the handshake
//   - log: Logger for diagnostics; it must not write to stdout
//
// Returns:
//   - *cobra.Command: Ready command; output goes to the command's out writer
//
// [gopls-style]: https://tip.golang.org/gopls/features/mcp#instructions-to-the-model
func NewRootCommand(version string, log logger.Logger) *cobra.Command {
	if log == nil {
		log = logger.Discard()
	}

	var (
		configFile       string
		showInstructions bool
		verbose          bool
	)

	exeName := posix.GetExecutableName()
	cmd := &cobra.Command{
		Use:   exeName,
		Short: "MCP server for verifying certificate, key and CSR trees",
		Long: `MCP server for verifying certificate, key and CSR trees.

The server speaks the Model Context Protocol over stdio. Point an MCP client
at this binary; configuration comes from --config or $` + config.EnvConfigFile + `.`,
		Example: fmt.Sprintf("  %[1]s\n  %[1]s --config verifier.yaml\n  %[1]s --instructions", exeName),
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetVerbose(verbose)
			if showInstructions {
				tools, toolsWithConfig := createTools()
				instructions, err := loadInstructions(tools, toolsWithConfig)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), instructions)
				return err
			}
			return Run(cmd.Context(), version, configFile, os.Stdin, os.Stdout, log)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&configFile, "config", "", "configuration file, JSON or YAML (default: $"+config.EnvConfigFile+")")
	fl.BoolVar(&showInstructions, "instructions", false, "print the instructions sent to MCP clients and exit")
	fl.BoolVarP(&verbose, "verbose", "v", false, "log debug messages to stderr")
	return cmd
}
