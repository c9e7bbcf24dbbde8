// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"cmp"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createPrompts returns the guided workflows offered to clients.
func createPrompts() []server.ServerPrompt {
	return []server.ServerPrompt{
		{
			Prompt: mcp.NewPrompt("rollout-audit",
				mcp.WithPromptDescription("Verify a certificate rollout and explain every NG server unit"),
				mcp.WithArgument("old_root",
					mcp.ArgumentDescription("Old tree root (default: from server configuration)"),
				),
				mcp.WithArgument("new_root",
					mcp.ArgumentDescription("New tree root (default: from server configuration)"),
				),
			),
			Handler: handleRolloutAuditPrompt,
		},
		{
			Prompt: mcp.NewPrompt("chain-repair",
				mcp.WithPromptDescription("Build a complete chain bundle for a leaf certificate"),
				mcp.WithArgument("leaf",
					mcp.ArgumentDescription("Leaf certificate file path"),
					mcp.RequiredArgument(),
				),
			),
			Handler: handleChainRepairPrompt,
		},
	}
}

// handleRolloutAuditPrompt walks the client through a full verification.
func handleRolloutAuditPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	oldRoot := cmp.Or(request.Params.Arguments["old_root"], "the configured old tree")
	newRoot := cmp.Or(request.Params.Arguments["new_root"], "the configured new tree")

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(
			mcp.RoleAssistant,
			mcp.NewTextContent(fmt.Sprintf("I'll verify every server unit of %s and %s.", oldRoot, newRoot)),
		),
		mcp.NewPromptMessage(
			mcp.RoleUser,
			mcp.NewTextContent(`1. Use the "verify_cert_tree" tool with format "json".`),
		),
		mcp.NewPromptMessage(
			mcp.RoleUser,
			mcp.NewTextContent(`2. List every server unit whose summary.verdict is NG, with the mismatched file pairs and their reason.`),
		),
		mcp.NewPromptMessage(
			mcp.RoleUser,
			mcp.NewTextContent(`3. List certificates whose chainStatus is "broken" or "unresolved", and those expired or expiring soon.`),
		),
		mcp.NewPromptMessage(
			mcp.RoleAssistant,
			mcp.NewTextContent(`4. Summarize the totals and recommend a fix per NG unit.`),
		),
	}

	return mcp.NewGetPromptResult("Certificate Rollout Audit", messages), nil
}

// handleChainRepairPrompt walks the client through resolving and merging a chain.
func handleChainRepairPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	leaf := request.Params.Arguments["leaf"]
	if leaf == "" {
		return nil, fmt.Errorf("leaf argument is required")
	}

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(
			mcp.RoleAssistant,
			mcp.NewTextContent(fmt.Sprintf("I'll build a complete chain bundle for %s.", leaf)),
		),
		mcp.NewPromptMessage(
			mcp.RoleUser,
			mcp.NewTextContent(fmt.Sprintf(`1. Use the "classify_chain" tool on %s. If it is already a fullchain, use "show_chain" and stop when every link is signed.`, leaf)),
		),
		mcp.NewPromptMessage(
			mcp.RoleUser,
			mcp.NewTextContent(`2. Use the "resolve_intermediate" tool to find the issuing intermediate.`),
		),
		mcp.NewPromptMessage(
			mcp.RoleUser,
			mcp.NewTextContent(`3. Use the "merge_chain" tool with intermediate "auto", then check the result with "show_chain".`),
		),
	}

	return mcp.NewGetPromptResult("Certificate Chain Repair", messages), nil
}
