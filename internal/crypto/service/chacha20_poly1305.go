package service

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

// SecretCipher implements cryptoDomain.Cipher using ChaCha20-Poly1305.
//
// Every call to Encrypt draws a fresh 12-byte nonce from the OS CSPRNG and uses
// the label (the secret name) as associated data. Swapping ciphertexts between
// records therefore fails authentication.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher creates a ChaCha20-Poly1305 cipher bound to a 32-byte key.
//
// The AEAD keeps its own copy of the key schedule; the caller remains responsible
// for wiping the slice it passed in.
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &SecretCipher{aead: aead}, nil
}

// Encrypt seals plaintext with label as associated data.
//
// Returns nonce || ciphertext || tag. The plaintext is not modified.
func (c *SecretCipher) Encrypt(label string, plaintext []byte) (cryptoDomain.EncryptedBlob, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, plaintext, []byte(label))
	return cryptoDomain.NewEncryptedBlob(nonce, sealed), nil
}

// Decrypt verifies and opens a blob produced by Encrypt.
//
// Returns ErrCiphertextTooShort if the blob cannot hold a nonce, and
// ErrAuthenticationFailed for a wrong key, a different label, or any modified byte.
// No plaintext is ever returned alongside an error.
func (c *SecretCipher) Decrypt(label string, blob cryptoDomain.EncryptedBlob) ([]byte, error) {
	nonce, sealed, err := blob.Split()
	if err != nil {
		return nil, err
	}

	plaintext, err := c.aead.Open(nil, nonce, sealed, []byte(label))
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
