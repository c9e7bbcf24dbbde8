// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"
	"os"

	"github.com/valyala/bytebufferpool"
)

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	Bytes() []byte
	String() string
	Len() int
	Reset()
	ReadFrom(r io.Reader) (int64, error)
}

// Pool defines the interface for buffer pooling.
// It abstracts the [bytebufferpool.Pool] type to avoid direct dependencies.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put returns a buffer to the pool.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default is the buffer pool shared by file probing and report rendering.
//
// Example usage:
//
//	buf := gc.Default.Get()
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
var Default Pool = &pool{p: &bytebufferpool.Pool{}}

// ReadFile reads the whole file at path through a pooled buffer and returns
// an owned copy of its contents.
//
// Parameters:
//   - path: File to read
//
// Returns:
//   - []byte: File contents, safe to keep after the call
//   - error: Error from opening or reading the file
//
// Thread Safety: Safe for concurrent use.
func ReadFile(path string) ([]byte, error) {
	return readFile(Default, path, false)
}

// ReadSecretFile is [ReadFile] for files holding secrets: the pooled buffer is
// zeroed before it goes back to the pool, so no copy of the contents survives
// outside the returned slice.
func ReadSecretFile(path string) ([]byte, error) {
	return readFile(Default, path, true)
}

func readFile(p Pool, path string, wipe bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := p.Get()
	defer func() {
		if wipe {
			clear(buf.Bytes())
		}
		buf.Reset()
		p.Put(buf)
	}()

	if _, err := buf.ReadFrom(f); err != nil {
		return nil, err
	}

	return append([]byte(nil), buf.Bytes()...), nil
}
