// Package domain defines the cryptographic domain models of the secret store.
//
// A single 32-byte master key encrypts every stored secret. The key lives in
// locked, guarded memory for exactly one session and is wiped when released.
package domain

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
)

// KeySize is the size in bytes of the master key (256 bits).
const KeySize = 32

// MasterKey represents the single symmetric key under which every secret is encrypted.
//
// The key bytes are held in a memguard LockedBuffer: the pages are mlock'ed so they
// are never swapped to disk, surrounded by guard pages, and overwritten with zeros
// by Close. A MasterKey must have exactly one owner; ownership is transferred to a
// CryptoService, which closes the key when the service is closed.
//
// Security considerations:
//   - Never log or serialize the key except through Encode for the one-time display
//   - Always defer Close right after obtaining a key
//   - Close is idempotent and safe on a nil key, so error paths can close freely
type MasterKey struct {
	buf *memguard.LockedBuffer
}

// GenerateMasterKey creates a new master key from the operating system CSPRNG.
//
// The random bytes are written directly into locked memory and never exist in
// ordinary heap memory.
func GenerateMasterKey() *MasterKey {
	buf := memguard.NewBufferRandom(KeySize)
	buf.Freeze()
	return &MasterKey{buf: buf}
}

// NewMasterKey moves raw key bytes into locked memory.
//
// The source slice is wiped whether or not the call succeeds. Returns
// ErrInvalidKeyFormat if the key is not exactly 32 bytes.
func NewMasterKey(key []byte) (*MasterKey, error) {
	if len(key) != KeySize {
		size := len(key)
		Zero(key)
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrInvalidKeyFormat, KeySize, size)
	}

	// NewBufferFromBytes wipes the source after copying.
	buf := memguard.NewBufferFromBytes(key)
	buf.Freeze()
	return &MasterKey{buf: buf}, nil
}

// DecodeMasterKey parses a standard base64 master key string.
//
// Surrounding whitespace is ignored. The decoded scratch buffer is wiped on every
// path. Returns ErrInvalidKeyFormat for malformed base64 or a decoded length other
// than 32 bytes.
func DecodeMasterKey(encoded string) (*MasterKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		Zero(raw)
		return nil, fmt.Errorf("%w: invalid base64", ErrInvalidKeyFormat)
	}
	return NewMasterKey(raw)
}

// Bytes returns the raw key material.
//
// The returned slice aliases locked memory: it must not be retained, copied into
// long-lived structures, or used after Close. It is read-only.
func (m *MasterKey) Bytes() []byte {
	if m == nil || m.buf == nil {
		return nil
	}
	return m.buf.Bytes()
}

// Encode returns the standard base64 encoding of the key.
//
// This is the only serialization of the key and exists for the one-time display at
// generation or rotation and for the credential store entry.
func (m *MasterKey) Encode() string {
	return base64.StdEncoding.EncodeToString(m.Bytes())
}

// IsAlive reports whether the key has not been closed yet.
func (m *MasterKey) IsAlive() bool {
	return m != nil && m.buf != nil && m.buf.IsAlive()
}

// Close wipes the key material and releases the locked memory.
func (m *MasterKey) Close() {
	if m == nil || m.buf == nil {
		return
	}
	m.buf.Destroy()
}
