package commands

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	cryptoService "github.com/allisson/devinventory/internal/crypto/service"
	secretsMocks "github.com/allisson/devinventory/internal/secrets/usecase/mocks"
	"github.com/allisson/devinventory/internal/testutil"
)

// failingStore is a credential store whose writes always fail.
type failingStore struct{}

func (failingStore) Get(context.Context) (string, bool, error) { return "", false, nil }
func (failingStore) Set(context.Context, string) error       { return errors.New("keyring locked") }
func (failingStore) Location() string                        { return "failing store" }

type rotationFixture struct {
	current    *cryptoService.CryptoService
	currentKey string
	store      *cryptoService.KeyringStore
	provider   *cryptoService.MasterKeyProvider
	out        *bytes.Buffer
}

func newRotationFixture(t *testing.T, store cryptoDomain.CredentialStore) *rotationFixture {
	t.Helper()

	key := cryptoDomain.GenerateMasterKey()
	encoded := key.Encode()

	current, err := cryptoService.NewCryptoService(key)
	require.NoError(t, err)
	t.Cleanup(current.Close)

	out := &bytes.Buffer{}
	provider := cryptoService.NewMasterKeyProvider(
		cryptoService.MasterKeySource{AllowKeyring: true},
		store,
		cryptoService.NewBase64KeyCodec(),
		out,
		testutil.DiscardLogger(),
	)

	fixture := &rotationFixture{current: current, currentKey: encoded, provider: provider, out: out}
	if ks, ok := store.(*cryptoService.KeyringStore); ok {
		fixture.store = ks
		require.NoError(t, ks.Set(context.Background(), encoded))
	}
	return fixture
}

func newArrayStore() *cryptoService.KeyringStore {
	return cryptoService.NewKeyringStoreFromKeyring(keyring.NewArrayKeyring(nil), "devinventory", "dmk")
}

func TestRunRotateMasterKey(t *testing.T) {
	ctx := context.Background()
	logger := testutil.DiscardLogger()

	t.Run("success", func(t *testing.T) {
		f := newRotationFixture(t, newArrayStore())
		useCase := secretsMocks.NewMockSecretUseCase(t)
		useCase.On("ReencryptAll", ctx, f.current, mock.AnythingOfType("*service.CryptoService")).
			Return(3, nil)

		err := RunRotateMasterKey(ctx, f.current, f.provider, useCase, logger, f.out)
		require.NoError(t, err)

		assert.Contains(t, f.out.String(), "Generated rotated master key")
		assert.Contains(t, f.out.String(), "3 secret(s) re-encrypted")
		assert.Contains(t, f.out.String(), "remember to back up the new master key")

		stored, found, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.NotEqual(t, f.currentKey, stored)
		assert.Contains(t, f.out.String(), stored)
	})

	t.Run("new key encrypts what the use case receives", func(t *testing.T) {
		f := newRotationFixture(t, newArrayStore())
		useCase := secretsMocks.NewMockSecretUseCase(t)

		var blob cryptoDomain.EncryptedBlob
		useCase.On("ReencryptAll", ctx, f.current, mock.Anything).
			Run(func(args mock.Arguments) {
				next := args.Get(2).(cryptoDomain.Cipher)
				var err error
				blob, err = next.Encrypt("aws-key", []byte("value"))
				require.NoError(t, err)
			}).
			Return(1, nil)

		require.NoError(t, RunRotateMasterKey(ctx, f.current, f.provider, useCase, logger, f.out))

		stored, _, err := f.store.Get(ctx)
		require.NoError(t, err)
		newKey, err := cryptoDomain.DecodeMasterKey(stored)
		require.NoError(t, err)
		next, err := cryptoService.NewCryptoService(newKey)
		require.NoError(t, err)
		defer next.Close()

		plaintext, err := next.Decrypt("aws-key", blob)
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), plaintext)

		_, err = f.current.Decrypt("aws-key", blob)
		assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
	})

	t.Run("re-encryption failure restores the previous key", func(t *testing.T) {
		f := newRotationFixture(t, newArrayStore())
		useCase := secretsMocks.NewMockSecretUseCase(t)
		useCase.On("ReencryptAll", ctx, f.current, mock.Anything).
			Return(0, cryptoDomain.ErrAuthenticationFailed)

		err := RunRotateMasterKey(ctx, f.current, f.provider, useCase, logger, f.out)
		require.Error(t, err)
		assert.ErrorIs(t, err, cryptoDomain.ErrAuthenticationFailed)
		assert.Contains(t, err.Error(), "previous master key")

		stored, found, err := f.store.Get(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, f.currentKey, stored)
		assert.Contains(t, f.out.String(), "the previous master key is active again")
	})

	t.Run("restore failure displays the previous key", func(t *testing.T) {
		f := newRotationFixture(t, failingStore{})
		useCase := secretsMocks.NewMockSecretUseCase(t)
		useCase.On("ReencryptAll", ctx, f.current, mock.Anything).
			Return(0, errors.New("disk full"))

		err := RunRotateMasterKey(ctx, f.current, f.provider, useCase, logger, f.out)
		require.Error(t, err)

		assert.Contains(t, f.out.String(), "Previous master key")
		assert.Contains(t, f.out.String(), f.currentKey)
	})

	t.Run("closed current service", func(t *testing.T) {
		f := newRotationFixture(t, newArrayStore())
		useCase := secretsMocks.NewMockSecretUseCase(t)
		useCase.On("ReencryptAll", ctx, f.current, mock.Anything).
			Run(func(mock.Arguments) { f.current.Close() }).
			Return(0, cryptoDomain.ErrCryptoServiceClosed)

		err := RunRotateMasterKey(ctx, f.current, f.provider, useCase, logger, f.out)
		require.Error(t, err)
		assert.ErrorIs(t, err, cryptoDomain.ErrCryptoServiceClosed)
		assert.NotContains(t, f.out.String(), f.currentKey)
	})
}
