// Package service provides the cryptographic services of the secret store.
// Implements the ChaCha20-Poly1305 secret cipher, the per-session crypto service,
// and master key resolution from inline values, the OS keyring, or generation.
package service

import (
	"errors"
	"sync"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

// CryptoService owns the master key for one session and encrypts secrets with it.
//
// The service takes sole ownership of the key passed to NewCryptoService: callers
// must not use or close the key afterwards. Close wipes the key; any later call
// fails with ErrCryptoServiceClosed.
type CryptoService struct {
	mu     sync.RWMutex
	key    *cryptoDomain.MasterKey
	cipher *SecretCipher
}

// NewCryptoService creates a crypto service bound to key.
//
// The key is closed if the service cannot be created.
func NewCryptoService(key *cryptoDomain.MasterKey) (*CryptoService, error) {
	if !key.IsAlive() {
		return nil, errors.New("master key is required")
	}

	secretCipher, err := NewSecretCipher(key.Bytes())
	if err != nil {
		key.Close()
		return nil, err
	}

	return &CryptoService{key: key, cipher: secretCipher}, nil
}

// Encrypt seals plaintext under the secret name.
func (s *CryptoService) Encrypt(name string, plaintext []byte) (cryptoDomain.EncryptedBlob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cipher == nil {
		return nil, cryptoDomain.ErrCryptoServiceClosed
	}
	return s.cipher.Encrypt(name, plaintext)
}

// Decrypt opens a blob stored under the secret name.
func (s *CryptoService) Decrypt(name string, blob cryptoDomain.EncryptedBlob) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cipher == nil {
		return nil, cryptoDomain.ErrCryptoServiceClosed
	}
	return s.cipher.Decrypt(name, blob)
}

// NewCipher returns an independent SecretCipher bound to the same master key.
//
// The key bytes never leave the service.
func (s *CryptoService) NewCipher() (*SecretCipher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, cryptoDomain.ErrCryptoServiceClosed
	}
	return NewSecretCipher(s.key.Bytes())
}

// WithKey runs fn with the master key while the service holds it.
//
// fn must not retain or close the key. Used to write the key back to the credential
// store when a rotation is rolled back.
func (s *CryptoService) WithKey(fn func(key *cryptoDomain.MasterKey) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return cryptoDomain.ErrCryptoServiceClosed
	}
	return fn(s.key)
}

// Close wipes the master key. It is safe to call more than once.
func (s *CryptoService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.key.Close()
	s.key = nil
	s.cipher = nil
}
