// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

// serverName identifies the server during the MCP handshake.
const serverName = "X509 Certificate Tree Verifier"

// ToolHandler handles a tool call that needs no configuration.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolHandlerWithConfig handles a tool call with access to the server configuration.
type ToolHandlerWithConfig func(ctx context.Context, request mcp.CallToolRequest, cfg *config.Config, log logger.Logger) (*mcp.CallToolResult, error)

// ToolDefinition pairs an MCP tool with its handler.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description and input schema
//   - Handler: The function that implements the tool
//   - Role: Short name used by the instructions template to refer to the tool
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ToolDefinitionWithConfig pairs an MCP tool with a handler that
// receives the server configuration.
type ToolDefinitionWithConfig struct {
	Tool    mcp.Tool
	Handler ToolHandlerWithConfig
	Role    string
}

// ServerDependencies holds everything the server is built from.
//
// This struct is used internally by ServerBuilder and should not be instantiated directly.
type ServerDependencies struct {
	Config          *config.Config
	Logger          logger.Logger
	Version         string
	Tools           []ToolDefinition
	ToolsWithConfig []ToolDefinitionWithConfig
	Resources       []server.ServerResource
	Prompts         []server.ServerPrompt
	Instructions    string
}

// ServerBuilder constructs the [MCP] server using a fluent interface.
//
// Example:
//
//	s, err := NewServerBuilder().
//	    WithConfig(cfg).
//	    WithVersion("1.0.0").
//	    WithDefaultTools().
//	    Build()
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder creates a builder with no dependencies configured.
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithConfig sets the configuration handed to config-aware tools.
// A nil config means [config.Default].
func (b *ServerBuilder) WithConfig(cfg *config.Config) *ServerBuilder {
	b.deps.Config = cfg
	return b
}

// WithLogger sets the logger handed to config-aware tools. It must never write
// to stdout, which carries the protocol.
func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.deps.Logger = log
	return b
}

// WithVersion sets the server version reported during the handshake.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithTools adds tools that need no configuration.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithToolsWithConfig adds tools that receive the configuration.
func (b *ServerBuilder) WithToolsWithConfig(tools ...ToolDefinitionWithConfig) *ServerBuilder {
	b.deps.ToolsWithConfig = append(b.deps.ToolsWithConfig, tools...)
	return b
}

// WithDefaultTools adds every tool from [createTools].
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	tools, toolsWithConfig := createTools()
	return b.WithTools(tools...).WithToolsWithConfig(toolsWithConfig...)
}

// WithResources adds static resources.
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithPrompts adds predefined prompts for guided workflows.
func (b *ServerBuilder) WithPrompts(prompts ...server.ServerPrompt) *ServerBuilder {
	b.deps.Prompts = append(b.deps.Prompts, prompts...)
	return b
}

// WithInstructions sets the instructions sent to clients during initialization.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// Build creates the [MCP] server and registers every tool, resource and prompt.
//
// Returns:
//   - *server.MCPServer: Ready server
//   - error: Currently always nil
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	cfg := b.deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	log := b.deps.Logger
	if log == nil {
		log = logger.Discard()
	}

	opts := []server.ServerOption{server.WithToolCapabilities(true)}
	if len(b.deps.Resources) > 0 {
		opts = append(opts, server.WithResourceCapabilities(false, true))
	}
	if len(b.deps.Prompts) > 0 {
		opts = append(opts, server.WithPromptCapabilities(true))
	}
	if b.deps.Instructions != "" {
		opts = append(opts, server.WithInstructions(b.deps.Instructions))
	}
	s := server.NewMCPServer(serverName, b.deps.Version, opts...)

	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, server.ToolHandlerFunc(tool.Handler))
	}

	for _, tool := range b.deps.ToolsWithConfig {
		handler := tool.Handler
		s.AddTool(tool.Tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handler(ctx, request, cfg, log)
		})
	}

	for _, resource := range b.deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}

	for _, prompt := range b.deps.Prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}

	return s, nil
}
