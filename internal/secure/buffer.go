// Package secure holds secret values in protected memory between the moment
// they enter the process and the moment a store writes them out.
//
// Values are kept in a memguard enclave: encrypted at rest in memory, locked
// against swapping where the platform allows it, and wiped on destruction.
// Call memguard.Purge in main's defer to clean up everything at exit.
package secure

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer is an encrypted in-memory container for one secret value.
type Buffer struct {
	enclave *memguard.Enclave

	mu        sync.RWMutex
	destroyed bool
}

// NewBuffer seals data into a protected buffer. memguard wipes the input
// slice as a side effect; callers must not reuse it.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// ReadValue captures a secret value from r into a protected buffer. A single
// trailing newline (or CRLF) is stripped so piped input like
// `echo value | enveloper set KEY` stores the value without the line ending.
func ReadValue(r io.Reader) (*Buffer, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return NewBuffer(data), nil
}

// Open decrypts the buffer into a locked plaintext region. The caller must
// Destroy the returned LockedBuffer as soon as the plaintext has been used.
func (b *Buffer) Open() (*memguard.LockedBuffer, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// memguard.NewEnclave returns nil for zero-length input, so an empty
	// value opens the same way a destroyed buffer does.
	if b.destroyed || b.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return b.enclave.Open()
}

// String decrypts the buffer, copies the plaintext out, and wipes the locked
// region. The returned string escapes protected memory; use it immediately
// and let it fall out of scope.
func (b *Buffer) String() (string, error) {
	locked, err := b.Open()
	if err != nil {
		return "", err
	}
	defer locked.Destroy()
	return string(locked.Bytes()), nil
}

// Destroy marks the buffer unusable. Idempotent; a destroyed buffer opens to
// an empty plaintext.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}
