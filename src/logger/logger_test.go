// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-cert-tree-verifier/src/logger"
)

type entry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func decodeLines(t *testing.T, out string) []entry {
	t.Helper()
	var entries []entry
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var e entry
		require.NoError(t, json.Unmarshal([]byte(line), &e), "line is not JSON: %s", line)
		entries = append(entries, e)
	}
	return entries
}

func TestCLILogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Printf and Println",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				log.Printf("scanning %s", "new")
				log.Println("org", "acme")

				assert.Equal(t, "scanning new\norg acme\n", buf.String())
			},
		},
		{
			name: "Debugf gated by verbosity",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				log.Debugf("hidden %d", 1)
				assert.Zero(t, buf.Len())

				log.SetVerbose(true)
				log.Debugf("shown %d", 2)
				assert.Equal(t, "debug: shown 2\n", buf.String())

				log.SetVerbose(false)
				log.Debugf("hidden %d", 3)
				assert.Equal(t, "debug: shown 2\n", buf.String())
			},
		},
		{
			name: "SetOutput",
			testFunc: func(t *testing.T) {
				var buf1, buf2 bytes.Buffer
				log := logger.NewCLILogger()

				log.SetOutput(&buf1)
				log.Println("first")
				log.SetOutput(&buf2)
				log.Println("second")

				assert.Equal(t, "first\n", buf1.String())
				assert.Equal(t, "second\n", buf2.String())
			},
		},
		{
			name: "ConcurrentUsage",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)
				log.SetVerbose(true)

				const goroutines, messages = 50, 10
				var wg sync.WaitGroup
				for i := range goroutines {
					wg.Go(func() {
						for j := range messages {
							log.Debugf("goroutine %d message %d", i, j)
						}
					})
				}
				wg.Wait()

				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				assert.Len(t, lines, goroutines*messages)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestMCPLogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Silent",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, true)
				log.SetVerbose(true)

				log.Printf("test message: %s", "hello")
				log.Println("another message")
				log.Debugf("debug message")

				assert.Zero(t, buf.Len(), "expected no output in silent mode")
			},
		},
		{
			name: "Levels",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, false)

				log.Printf("probe %s", "server.crt")
				log.Debugf("not verbose yet")
				log.SetVerbose(true)
				log.Debugf("tried %d passphrases", 3)
				log.Println("done", 1)

				assert.Equal(t, []entry{
					{Level: "info", Message: "probe server.crt"},
					{Level: "debug", Message: "tried 3 passphrases"},
					{Level: "info", Message: "done1"},
				}, decodeLines(t, buf.String()))
			},
		},
		{
			name: "JSONEscaping",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, false)

				inputs := []string{
					`test"quote`,
					`test\backslash`,
					"test\nnewline\r\tand tab",
					"test\x01control",
					`CN=Example\, Inc,O=<Test & PKI>`,
				}
				for _, in := range inputs {
					buf.Reset()
					log.Printf("%s", in)

					entries := decodeLines(t, buf.String())
					require.Len(t, entries, 1, "input %q", in)
					assert.Equal(t, in, entries[0].Message)
				}
			},
		},
		{
			name: "SetOutput_Nil",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, false)
				log.SetOutput(nil)

				assert.NotPanics(t, func() { log.Printf("discarded") })
				assert.Zero(t, buf.Len())
			},
		},
		{
			name: "NilWriter",
			testFunc: func(t *testing.T) {
				log := logger.NewMCPLogger(nil, false)
				assert.NotPanics(t, func() { log.Println("discarded") })
			},
		},
		{
			name: "Discard",
			testFunc: func(t *testing.T) {
				log := logger.Discard()
				assert.NotPanics(t, func() {
					log.SetVerbose(true)
					log.Debugf("nothing")
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestMCPLogger_ConcurrentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.log")
	file, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { file.Close() })

	log := logger.NewMCPLogger(file, false)
	log.SetVerbose(true)

	const goroutines, messages = 25, 20
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Go(func() {
			for j := range messages {
				if j%2 == 0 {
					log.Printf("goroutine %d message %d", i, j)
				} else {
					log.Debugf("goroutine %d message %d", i, j)
				}
			}
		})
	}
	wg.Wait()
	require.NoError(t, file.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	entries := decodeLines(t, string(content))
	require.Len(t, entries, goroutines*messages)

	var debug int
	for _, e := range entries {
		assert.Contains(t, e.Message, "goroutine")
		if e.Level == "debug" {
			debug++
		}
	}
	assert.Equal(t, goroutines*messages/2, debug)
}
