// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/mcp-server/templates"
)

// instructionsFile is the embedded template rendered by [loadInstructions].
const instructionsFile = "X509_instructions.md"

// instructionData holds the data for the instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string // Maps tool roles to tool names for template use
}

// toolInfo represents information about an MCP tool for template rendering.
type toolInfo struct {
	Name        string
	Description string
}

// loadInstructions renders the instructions template with the names and
// descriptions of the given tools.
//
// Parameters:
//   - tools: Tools without config dependencies
//   - toolsWithConfig: Tools that receive the server configuration
//
// Returns:
//   - string: Rendered instructions
//   - error: Error when the template cannot be read, parsed or executed
func loadInstructions(tools []ToolDefinition, toolsWithConfig []ToolDefinitionWithConfig) (string, error) {
	templateBytes, err := templates.MagicEmbed.ReadFile(instructionsFile)
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions template: %w", err)
	}

	data := instructionData{ToolRoles: make(map[string]string)}
	add := func(tool mcp.Tool, role string) {
		data.Tools = append(data.Tools, toolInfo{Name: tool.Name, Description: tool.Description})
		if role != "" {
			data.ToolRoles[role] = tool.Name
		}
	}
	for _, tool := range tools {
		add(tool.Tool, tool.Role)
	}
	for _, tool := range toolsWithConfig {
		add(tool.Tool, tool.Role)
	}

	tmpl, err := template.New("instructions").Option("missingkey=error").Parse(string(templateBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse instructions template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute instructions template: %w", err)
	}

	return buf.String(), nil
}
