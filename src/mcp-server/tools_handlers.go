// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/audit"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/report"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/secret"
	x509chain "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/chain"
	x509engine "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/engine"
	x509probe "github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/x509/probe"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

// autoIntermediate makes merge_chain resolve the intermediate itself.
const autoIntermediate = "auto"

// handleClassifyChain reports whether a certificate file is a single
// certificate or a fullchain bundle.
func handleClassifyChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter required: %v", err)), nil
	}

	data, err := gc.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err)), nil
	}

	return mcp.NewToolResultText(x509chain.ClassifyBytes(data).String()), nil
}

// handleShowChain renders the certificates of a file as an ASCII tree, a
// markdown table, JSON or a PEM bundle. The file is read through the
// configured engine, so PKCS7 containers are accepted.
func handleShowChain(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter required: %v", err)), nil
	}
	view := request.GetString("view", "tree")

	prober, err := newProber(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	art, err := prober.ProbeCertificate(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err)), nil
	}
	if len(art.Certs) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no certificates decoded from %s", path)), nil
	}
	log.Debugf("showing %d certificates of %s", len(art.Certs), path)

	ch := x509chain.New(art.Certs...)
	switch view {
	case "tree":
		return mcp.NewToolResultText(ch.RenderASCIITree()), nil
	case "table":
		return mcp.NewToolResultText(ch.RenderTable()), nil
	case "json":
		raw, err := ch.ToVisualizationJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode chain: %v", err)), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	case "pem":
		return mcp.NewToolResultText(string(ch.RenderPEM())), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported view %q: use tree, table, json or pem", view)), nil
	}
}

// handleVerifyCertTree runs a full verification and returns the rendered
// report. NG verdicts are findings, not tool failures, so they come back as
// a normal result.
func handleVerifyCertTree(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, error) {
	run := *cfg
	if v := request.GetString("old_root", ""); v != "" {
		run.Roots.Old = v
	}
	if v := request.GetString("new_root", ""); v != "" {
		run.Roots.New = v
	}
	if v := request.GetString("passphrase_file", ""); v != "" {
		run.Passphrase.OverridePath = v
	}
	run.Output.Format = request.GetString("format", string(report.FormatJSON))
	run.Output.NoColor = true

	if err := run.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := report.ParseFormat(run.Output.Format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	auditor, err := audit.NewFromConfig(&run, log)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start verification: %v", err)), nil
	}

	rep, err := auditor.Run(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("verification aborted: %v", err)), nil
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()
	if err := report.Render(buf, rep, format, report.Options{NoColor: true}); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
	}

	return mcp.NewToolResultText(buf.String()), nil
}

// handleProbeCertFile describes one certificate, key or CSR file as JSON.
func handleProbeCertFile(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("path parameter required: %v", err)), nil
	}

	prober, err := newProber(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var files []string
	if v := request.GetString("passphrase_file", ""); v != "" {
		files = []string{v}
	} else if fallback := cfg.PassphraseEnvFallback(); fallback != "" {
		files = []string{fallback}
	}
	passphrases, err := secret.LoadFiles(files)
	defer secret.WipeAll(passphrases)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	probed, err := prober.ProbeFile(path, passphrases)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to probe %s: %v", path, err)), nil
	}
	log.Debugf("probed %s as %s", path, probed.Kind)

	raw, err := json.MarshalIndent(probed, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// handleResolveIntermediate finds the intermediate of a leaf certificate.
func handleResolveIntermediate(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, error) {
	leafPath, err := request.RequireString("leaf")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("leaf parameter required: %v", err)), nil
	}

	match, err := locateIntermediate(request, cfg, log, leafPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n%s\n", match.Path, match.Subject)), nil
}

// handleMergeChain builds a PEM bundle from a leaf, its intermediate and an
// optional root.
func handleMergeChain(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, error) {
	leafPath, err := request.RequireString("leaf")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("leaf parameter required: %v", err)), nil
	}
	interPath := request.GetString("intermediate", autoIntermediate)
	rootPath := request.GetString("root", "")
	skip := request.GetBool("skip_if_merged", false)

	leaf, err := gc.ReadFile(leafPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read leaf: %v", err)), nil
	}

	if interPath == autoIntermediate {
		interPath = ""
		if !skip || x509chain.ClassifyBytes(leaf) != x509chain.FullchainGuess {
			match, err := locateIntermediate(request, cfg, log, leafPath)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			interPath = match.Path
		}
	}

	var inter, root []byte
	if interPath != "" {
		if inter, err = gc.ReadFile(interPath); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read intermediate: %v", err)), nil
		}
	}
	if rootPath != "" {
		if root, err = gc.ReadFile(rootPath); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read root: %v", err)), nil
		}
	}

	bundle, err := x509chain.MergeChain(leaf, inter, root, skip)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(bundle)), nil
}

// locateIntermediate probes the leaf and resolves its intermediate from the
// leaf's directory and the search roots. Unreadable candidates are logged
// and skipped.
func locateIntermediate(request mcp.CallToolRequest, cfg *config.Config, log logger.Logger, leafPath string) (*x509probe.CertificateArtifact, error) {
	prober, err := newProber(cfg)
	if err != nil {
		return nil, err
	}

	searchRoots := cfg.Chain.SearchRoots
	if v := request.GetString("search_roots", ""); v != "" {
		searchRoots = splitList(v)
	}

	leaf, err := prober.ProbeCertificate(leafPath)
	if err != nil {
		return nil, err
	}

	match, probeErrs, err := x509chain.LocateIntermediate(prober, leaf, searchRoots, cfg.Chain.Patterns)
	for _, e := range probeErrs {
		log.Printf("skipping candidate: %v", e)
	}
	if err != nil {
		return nil, fmt.Errorf("intermediate of %s: %w", leafPath, err)
	}
	return match, nil
}

// newProber builds a prober around the configured engine.
func newProber(cfg *config.Config) (*x509probe.Prober, error) {
	eng, err := x509engine.New(cfg.Engine.Kind, cfg.Engine.OpenSSLPath)
	if err != nil {
		return nil, fmt.Errorf("engine %q: %w", cfg.Engine.Kind, err)
	}
	return x509probe.New(eng), nil
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
