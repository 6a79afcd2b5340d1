package app

import (
	"context"
	"fmt"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	cryptoService "github.com/allisson/devinventory/internal/crypto/service"
)

// KMSService returns the KMS service.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyCodec returns the codec for the displayed and stored master key.
// The key is wrapped with the configured KMS key when DEVINVENTORY_KMS_KEY_URI is set.
func (c *Container) KeyCodec(ctx context.Context) (cryptoDomain.KeyCodec, error) {
	var err error
	c.keyCodecInit.Do(func() {
		c.keyCodec, err = c.initKeyCodec(ctx)
		if err != nil {
			c.initErrors["keyCodec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyCodec"]; exists {
		return nil, storedErr
	}
	return c.keyCodec, nil
}

// CredentialStore returns the OS keyring store.
func (c *Container) CredentialStore() cryptoDomain.CredentialStore {
	c.credentialStoreInit.Do(func() {
		c.credentialStore = cryptoService.NewKeyringStore(cryptoService.KeyringConfig{
			ServiceName:  c.config.KeyringService,
			Account:      c.config.KeyringAccount,
			Backend:      c.config.KeyringBackend,
			FileDir:      c.config.KeyringFileDir,
			FilePassword: c.config.KeyringFilePassword,
		})
	})
	return c.credentialStore
}

// MasterKeyProvider returns the master key resolver.
func (c *Container) MasterKeyProvider(ctx context.Context) (*cryptoService.MasterKeyProvider, error) {
	var err error
	c.masterKeyProviderInit.Do(func() {
		c.masterKeyProvider, err = c.initMasterKeyProvider(ctx)
		if err != nil {
			c.initErrors["masterKeyProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["masterKeyProvider"]; exists {
		return nil, storedErr
	}
	return c.masterKeyProvider, nil
}

// CryptoService returns the session crypto service.
//
// The master key is resolved from the inline value or the keyring on first call. It
// is never generated here: without a key this returns ErrMasterKeyUnavailable.
func (c *Container) CryptoService(ctx context.Context) (*cryptoService.CryptoService, error) {
	return c.openCryptoService(ctx, false)
}

// InitCryptoService returns the session crypto service, generating, displaying and
// storing a new master key when none exists yet.
func (c *Container) InitCryptoService(ctx context.Context) (*cryptoService.CryptoService, error) {
	return c.openCryptoService(ctx, true)
}

func (c *Container) openCryptoService(
	ctx context.Context,
	generateIfMissing bool,
) (*cryptoService.CryptoService, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cryptoService != nil {
		return c.cryptoService, nil
	}

	provider, err := c.MasterKeyProvider(ctx)
	if err != nil {
		return nil, err
	}

	key, err := provider.Obtain(ctx, generateIfMissing)
	if err != nil {
		return nil, err
	}

	svc, err := cryptoService.NewCryptoService(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create crypto service: %w", err)
	}

	c.cryptoService = svc
	return svc, nil
}

// initKeyCodec creates the KMS-backed codec when a key URI is configured, or the
// plain base64 codec otherwise.
func (c *Container) initKeyCodec(ctx context.Context) (cryptoDomain.KeyCodec, error) {
	if c.config.KMSKeyURI == "" {
		return cryptoService.NewBase64KeyCodec(), nil
	}

	codec, err := cryptoService.NewKMSKeyCodec(ctx, c.KMSService(), c.config.KMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms key codec: %w", err)
	}
	return codec, nil
}

// initMasterKeyProvider creates the master key resolver with all its dependencies.
func (c *Container) initMasterKeyProvider(ctx context.Context) (*cryptoService.MasterKeyProvider, error) {
	codec, err := c.KeyCodec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get key codec for master key provider: %w", err)
	}

	source := cryptoService.MasterKeySource{
		Inline:       c.config.MasterKey,
		AllowKeyring: c.config.KeyringEnabled,
	}

	return cryptoService.NewMasterKeyProvider(source, c.CredentialStore(), codec, c.out, c.Logger()), nil
}
