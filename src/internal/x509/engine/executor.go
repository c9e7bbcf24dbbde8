// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509engine

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// CommandExecutor runs external commands for the OpenSSL engine.
type CommandExecutor interface {
	// Execute runs name with args, feeding input on stdin, and returns stdout.
	// A failing command returns a *CommandError carrying stderr.
	Execute(input []byte, name string, args ...string) ([]byte, error)

	// LookPath searches for an executable in the directories named by PATH.
	LookPath(file string) (string, error)
}

// CommandError is a failed command together with what it wrote to stderr.
type CommandError struct {
	Name   string
	Stderr string
	Err    error
}

// Error implements error.
func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Name, e.Err, e.Stderr)
}

// Unwrap returns the underlying exec error.
func (e *CommandError) Unwrap() error { return e.Err }

// SystemExecutor implements [CommandExecutor] using os/exec.
type SystemExecutor struct{}

// NewSystemExecutor creates a new SystemExecutor.
func NewSystemExecutor() *SystemExecutor {
	return &SystemExecutor{}
}

// Execute runs a command and returns its stdout. Stderr is kept apart so that
// diagnostics never end up parsed as data.
func (e *SystemExecutor) Execute(input []byte, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.Command(name, args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CommandError{Name: name, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

// LookPath searches for an executable.
func (e *SystemExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// MockExecutor is a mock implementation for testing.
type MockExecutor struct {
	ExecuteFunc  func(input []byte, name string, args ...string) ([]byte, error)
	LookPathFunc func(file string) (string, error)

	mu    sync.Mutex
	calls []CommandCall
}

// CommandCall records a command execution for verification.
type CommandCall struct {
	Name  string
	Args  []string
	Input []byte
}

// Execute calls the mock function.
func (m *MockExecutor) Execute(input []byte, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, CommandCall{Name: name, Args: args, Input: input})
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(input, name, args...)
	}
	return []byte(""), nil
}

// LookPath calls the mock function.
func (m *MockExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	return "/usr/bin/" + file, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockExecutor) Calls() []CommandCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CommandCall(nil), m.calls...)
}
