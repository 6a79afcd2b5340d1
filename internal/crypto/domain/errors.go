package domain

import (
	"github.com/allisson/devinventory/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so the command layer can classify failures without string matching.
var (
	// ErrInvalidKeyFormat indicates a master key string could not be turned into a key.
	//
	// Returned when the base64 is malformed, when the decoded value is not exactly
	// 32 bytes, or when a KMS-wrapped key cannot be unwrapped into 32 bytes.
	ErrInvalidKeyFormat = errors.Wrap(errors.ErrInvalidInput, "invalid master key format")

	// ErrMasterKeyUnavailable indicates no master key was found and generation was not allowed.
	//
	// Read commands never create a throwaway key; the operator must provide one
	// with --master-key, store one in the OS keyring, or run `init`.
	ErrMasterKeyUnavailable = errors.Wrap(
		errors.ErrNotFound,
		"master key not found; provide --master-key or run `init`",
	)

	// ErrCiphertextTooShort indicates a blob is shorter than the 12-byte nonce.
	ErrCiphertextTooShort = errors.Wrap(errors.ErrInvalidInput, "ciphertext too short")

	// ErrAuthenticationFailed indicates the AEAD tag did not verify.
	//
	// This error can occur due to:
	//   - Wrong master key in use
	//   - The label (secret name) differs from the one used at encryption
	//   - Ciphertext has been corrupted or tampered with
	//
	// The cause is deliberately not distinguished.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrInvalidInput, "authentication failed")

	// ErrCredentialStore indicates the OS credential store could not be read or written.
	ErrCredentialStore = errors.Wrap(errors.ErrUnavailable, "credential store error")

	// ErrKeyDisplayFailed indicates a freshly generated key could not be shown to the operator.
	//
	// Generation aborts in this case: a key nobody has seen must never be persisted
	// or used to encrypt data.
	ErrKeyDisplayFailed = errors.New("failed to display generated master key")

	// ErrCryptoServiceClosed indicates the crypto service already released its master key.
	ErrCryptoServiceClosed = errors.New("crypto service is closed")
)
