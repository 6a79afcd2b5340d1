package domain

import "context"

// Cipher encrypts and decrypts secret values bound to a label.
//
// The label is authenticated as associated data, so a blob only decrypts under
// the exact label it was produced with.
type Cipher interface {
	// Encrypt seals plaintext under label and returns nonce || ciphertext || tag.
	Encrypt(label string, plaintext []byte) (EncryptedBlob, error)

	// Decrypt opens a blob produced by Encrypt with the same key and label.
	Decrypt(label string, blob EncryptedBlob) ([]byte, error)
}

// CredentialStore persists the encoded master key in an OS credential store.
type CredentialStore interface {
	// Get returns the stored value. found is false when no entry exists.
	Get(ctx context.Context) (value string, found bool, err error)

	// Set creates or replaces the stored value.
	Set(ctx context.Context, value string) error

	// Location describes where the entry lives, for operator messages.
	Location() string
}

// KeyCodec converts a master key to and from its displayed/stored string form.
type KeyCodec interface {
	// Encode returns the string an operator saves and the keyring stores.
	Encode(ctx context.Context, key *MasterKey) (string, error)

	// Decode parses a string produced by Encode.
	// Returns ErrInvalidKeyFormat for anything that is not a valid key.
	Decode(ctx context.Context, encoded string) (*MasterKey, error)

	// Close releases resources held by the codec.
	Close() error
}
