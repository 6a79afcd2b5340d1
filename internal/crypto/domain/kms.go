package domain

import "context"

// KMSKeeper wraps and unwraps the master key with an external key management service.
//
// *secrets.Keeper from gocloud.dev satisfies this interface, so any gocloud driver
// (gcpkms, awskms, azurekeyvault, hashivault, base64key) can protect the stored key.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
