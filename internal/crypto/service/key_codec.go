package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

// Base64KeyCodec encodes the raw master key as standard base64.
type Base64KeyCodec struct{}

// NewBase64KeyCodec creates the default key codec.
func NewBase64KeyCodec() *Base64KeyCodec {
	return &Base64KeyCodec{}
}

// Encode returns the standard base64 encoding of the key.
func (c *Base64KeyCodec) Encode(_ context.Context, key *cryptoDomain.MasterKey) (string, error) {
	if !key.IsAlive() {
		return "", cryptoDomain.ErrCryptoServiceClosed
	}
	return key.Encode(), nil
}

// Decode parses a standard base64 master key.
func (c *Base64KeyCodec) Decode(_ context.Context, encoded string) (*cryptoDomain.MasterKey, error) {
	return cryptoDomain.DecodeMasterKey(encoded)
}

// Close is a no-op.
func (c *Base64KeyCodec) Close() error {
	return nil
}

// KMSKeyCodec wraps the master key with a KMS keeper before encoding it.
//
// The displayed and stored string is the base64 of the KMS ciphertext, so the raw
// key never leaves the process and a leaked keyring entry is useless without
// access to the KMS.
type KMSKeyCodec struct {
	keeper cryptoDomain.KMSKeeper
}

// NewKMSKeyCodec opens the keeper addressed by keyURI.
func NewKMSKeyCodec(ctx context.Context, kmsService KMSService, keyURI string) (*KMSKeyCodec, error) {
	keeper, err := kmsService.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, err
	}
	return &KMSKeyCodec{keeper: keeper}, nil
}

// Encode encrypts the key with the KMS and returns the base64 ciphertext.
func (c *KMSKeyCodec) Encode(ctx context.Context, key *cryptoDomain.MasterKey) (string, error) {
	if !key.IsAlive() {
		return "", cryptoDomain.ErrCryptoServiceClosed
	}

	wrapped, err := c.keeper.Encrypt(ctx, key.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to wrap master key with KMS: %w", err)
	}
	return base64.StdEncoding.EncodeToString(wrapped), nil
}

// Decode unwraps a KMS-encrypted master key.
//
// Any failure, including a KMS that cannot decrypt the value, is reported as
// ErrInvalidKeyFormat.
func (c *KMSKeyCodec) Decode(ctx context.Context, encoded string) (*cryptoDomain.MasterKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64", cryptoDomain.ErrInvalidKeyFormat)
	}

	raw, err := c.keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unwrap master key with KMS: %v", cryptoDomain.ErrInvalidKeyFormat, err)
	}

	return cryptoDomain.NewMasterKey(raw)
}

// Close closes the underlying keeper.
func (c *KMSKeyCodec) Close() error {
	return c.keeper.Close()
}
