package domain

const (
	// NonceSize is the size of the random nonce prefixed to every blob (96 bits).
	NonceSize = 12

	// TagSize is the size of the Poly1305 authentication tag appended by the AEAD.
	TagSize = 16
)

// EncryptedBlob is the persisted form of an encrypted secret value.
//
// Layout: nonce(12 bytes) || ciphertext || tag(16 bytes). Any tool reading the store
// directly must reproduce this layout exactly.
type EncryptedBlob []byte

// NewEncryptedBlob concatenates a nonce and the sealed ciphertext (ciphertext plus tag).
func NewEncryptedBlob(nonce, sealed []byte) EncryptedBlob {
	blob := make(EncryptedBlob, 0, len(nonce)+len(sealed))
	blob = append(blob, nonce...)
	blob = append(blob, sealed...)
	return blob
}

// Split separates the nonce from the sealed payload.
//
// Returns ErrCiphertextTooShort when the blob cannot even hold a nonce. A blob that
// holds a nonce but no complete tag is left for the AEAD to reject.
func (b EncryptedBlob) Split() (nonce, sealed []byte, err error) {
	if len(b) < NonceSize {
		return nil, nil, ErrCiphertextTooShort
	}
	return b[:NonceSize], b[NonceSize:], nil
}
