// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
// It provides methods for different log levels and formatted output.
//
// This interface supports both CLI and [MCP] server modes, allowing seamless
// switching between human-readable output and structured logging.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// Debugf formats and prints a message only when verbose output is enabled.
	Debugf(format string, v ...any)
	// SetVerbose enables or disables [Logger.Debugf] output.
	SetVerbose(verbose bool)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
//
// Logs go to stderr so they never mix with a report written to stdout.
type CLILogger struct {
	logger  *log.Logger
	verbose atomic.Bool
}

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stderr, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// Debugf prints a "debug: " prefixed message when verbose.
func (c *CLILogger) Debugf(format string, v ...any) {
	if c.verbose.Load() {
		c.logger.Printf("debug: "+format, v...)
	}
}

// SetVerbose enables or disables debug output.
func (c *CLILogger) SetVerbose(verbose bool) { c.verbose.Store(verbose) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// MCPLogger implements Logger for [MCP] server mode.
// It suppresses output by default since MCP communication happens over stdio,
// but can be configured to write structured logs to a separate destination.
//
// Each entry is one JSON object per line, encoded in a pooled buffer from
// [gc.Default].
//
// MCPLogger is safe for concurrent use by multiple goroutines.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type MCPLogger struct {
	mu      sync.Mutex
	writer  io.Writer
	silent  bool
	verbose bool
}

// NewMCPLogger creates a new [MCP] logger.
// By default, it's silent (output suppressed) to avoid interfering with [MCP] stdio protocol.
// Set silent=false and provide a writer to enable structured logging to a file or stderr.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func NewMCPLogger(writer io.Writer, silent bool) *MCPLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &MCPLogger{
		writer: writer,
		silent: silent,
	}
}

// logEntry is the JSON shape of one [MCPLogger] line.
type logEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// write encodes one entry and writes it under the lock.
func (m *MCPLogger) write(level, msg string) {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	// Encoder adds the trailing newline.
	if err := json.NewEncoder(buf).Encode(logEntry{Level: level, Message: msg}); err != nil {
		return
	}

	m.mu.Lock()
	m.writer.Write(buf.Bytes())
	m.mu.Unlock()
}

// Printf formats and logs a structured message in JSON format.
// Output is suppressed if silent mode is enabled.
//
// The JSON format is compatible with [MCP] protocol logging requirements.
//
// Printf is safe for concurrent use by multiple goroutines.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (m *MCPLogger) Printf(format string, v ...any) {
	if m.silent {
		return
	}
	m.write("info", fmt.Sprintf(format, v...))
}

// Println logs a structured message in JSON format.
// Output is suppressed if silent mode is enabled.
//
// Println is safe for concurrent use by multiple goroutines.
func (m *MCPLogger) Println(v ...any) {
	if m.silent {
		return
	}
	m.write("info", fmt.Sprint(v...))
}

// Debugf logs a "debug" level entry when verbose and not silent.
func (m *MCPLogger) Debugf(format string, v ...any) {
	m.mu.Lock()
	verbose := m.verbose
	m.mu.Unlock()

	if m.silent || !verbose {
		return
	}
	m.write("debug", fmt.Sprintf(format, v...))
}

// SetVerbose enables or disables debug entries.
func (m *MCPLogger) SetVerbose(verbose bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verbose = verbose
}

// SetOutput sets the output destination for the MCP logger.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (m *MCPLogger) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w == nil {
		m.writer = io.Discard
	} else {
		m.writer = w
	}
}

// Discard returns a silent [MCPLogger], for library callers that want no output.
func Discard() Logger { return NewMCPLogger(nil, true) }
