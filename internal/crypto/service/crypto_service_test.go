package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
)

func TestNewCryptoService(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, err := NewCryptoService(cryptoDomain.GenerateMasterKey())
		require.NoError(t, err)
		defer svc.Close()
		assert.NotNil(t, svc)
	})

	t.Run("nil key", func(t *testing.T) {
		svc, err := NewCryptoService(nil)
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("closed key", func(t *testing.T) {
		key := cryptoDomain.GenerateMasterKey()
		key.Close()

		svc, err := NewCryptoService(key)
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestCryptoService_EncryptDecrypt(t *testing.T) {
	svc, err := NewCryptoService(cryptoDomain.GenerateMasterKey())
	require.NoError(t, err)
	defer svc.Close()

	blob, err := svc.Encrypt("aws-key", []byte("AKIA123"))
	require.NoError(t, err)

	plaintext, err := svc.Decrypt("aws-key", blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("AKIA123"), plaintext)

	_, err = svc.Decrypt("aws-secret", blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
}

func TestCryptoService_NewCipher(t *testing.T) {
	svc, err := NewCryptoService(cryptoDomain.GenerateMasterKey())
	require.NoError(t, err)
	defer svc.Close()

	c, err := svc.NewCipher()
	require.NoError(t, err)

	blob, err := c.Encrypt("name", []byte("value"))
	require.NoError(t, err)

	plaintext, err := svc.Decrypt("name", blob)
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), plaintext)
}

func TestCryptoService_Close(t *testing.T) {
	key := cryptoDomain.GenerateMasterKey()
	svc, err := NewCryptoService(key)
	require.NoError(t, err)

	blob, err := svc.Encrypt("name", []byte("value"))
	require.NoError(t, err)

	svc.Close()
	assert.False(t, key.IsAlive())

	_, err = svc.Encrypt("name", []byte("value"))
	assert.ErrorIs(t, err, cryptoDomain.ErrCryptoServiceClosed)

	_, err = svc.Decrypt("name", blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrCryptoServiceClosed)

	_, err = svc.NewCipher()
	assert.ErrorIs(t, err, cryptoDomain.ErrCryptoServiceClosed)

	assert.NotPanics(t, svc.Close)
}

func TestCryptoService_DifferentKeys(t *testing.T) {
	svc1, err := NewCryptoService(cryptoDomain.GenerateMasterKey())
	require.NoError(t, err)
	defer svc1.Close()
	svc2, err := NewCryptoService(cryptoDomain.GenerateMasterKey())
	require.NoError(t, err)
	defer svc2.Close()

	blob, err := svc1.Encrypt("name", []byte("value"))
	require.NoError(t, err)

	_, err = svc2.Decrypt("name", blob)
	assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
}

func TestCryptoService_WithKey(t *testing.T) {
	key := cryptoDomain.GenerateMasterKey()
	encoded := key.Encode()

	svc, err := NewCryptoService(key)
	require.NoError(t, err)

	var seen string
	err = svc.WithKey(func(k *cryptoDomain.MasterKey) error {
		seen = k.Encode()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, encoded, seen)

	errCallback := errors.New("callback failed")
	err = svc.WithKey(func(*cryptoDomain.MasterKey) error { return errCallback })
	assert.ErrorIs(t, err, errCallback)

	svc.Close()
	err = svc.WithKey(func(*cryptoDomain.MasterKey) error { return nil })
	assert.ErrorIs(t, err, cryptoDomain.ErrCryptoServiceClosed)
}
