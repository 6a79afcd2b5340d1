package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/devinventory/internal/config"
	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	cryptoService "github.com/allisson/devinventory/internal/crypto/service"
	secretsDomain "github.com/allisson/devinventory/internal/secrets/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:             "sqlite",
		DBPath:               filepath.Join(t.TempDir(), "nested", "secrets.db"),
		DBMaxOpenConnections: 4,
		DBMaxIdleConnections: 2,
		DBConnMaxLifetime:    time.Minute,
		LogLevel:             "debug",
		LogFormat:            "text",
		KeyringEnabled:       true,
		KeyringService:       "devinventory",
		KeyringAccount:       "dmk",
		MetricsNamespace:     "devinventory",
	}
}

func newTestContainer(t *testing.T, cfg *config.Config, ring keyring.Keyring, out *bytes.Buffer) *Container {
	t.Helper()
	store := cryptoService.NewKeyringStoreFromKeyring(ring, cfg.KeyringService, cfg.KeyringAccount)
	container := NewContainer(cfg,
		WithOutput(out),
		WithLogOutput(&bytes.Buffer{}),
		WithCredentialStore(store),
	)
	t.Cleanup(func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	})
	return container
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)
	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
	assert.Equal(t, os.Stdout, container.Output())
}

func TestContainerLogger(t *testing.T) {
	t.Run("singleton", func(t *testing.T) {
		container := NewContainer(&config.Config{LogLevel: "debug"})
		logger := container.Logger()
		require.NotNil(t, logger)
		assert.Same(t, logger, container.Logger())
	})

	t.Run("json output honours level", func(t *testing.T) {
		var logs bytes.Buffer
		container := NewContainer(&config.Config{LogLevel: "warn", LogFormat: "json"}, WithLogOutput(&logs))

		container.Logger().Info("hidden")
		container.Logger().Warn("visible")

		assert.NotContains(t, logs.String(), "hidden")
		assert.Contains(t, logs.String(), `"msg":"visible"`)
	})

	t.Run("invalid level falls back to warn", func(t *testing.T) {
		var logs bytes.Buffer
		container := NewContainer(&config.Config{LogLevel: "invalid"}, WithLogOutput(&logs))

		container.Logger().Info("hidden")
		assert.Empty(t, logs.String())
	})
}

func TestContainerDB(t *testing.T) {
	t.Run("creates directory and migrates", func(t *testing.T) {
		cfg := testConfig(t)
		container := newTestContainer(t, cfg, keyring.NewArrayKeyring(nil), &bytes.Buffer{})

		db, err := container.DB()
		require.NoError(t, err)

		var count int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM secrets").Scan(&count))
		assert.Zero(t, count)

		again, err := container.DB()
		require.NoError(t, err)
		assert.Same(t, db, again)
	})

	t.Run("unsupported driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.DBDriver = "invalid_driver"
		cfg.DBConnectionString = "whatever"
		container := NewContainer(cfg, WithLogOutput(&bytes.Buffer{}))

		_, err := container.DB()
		assert.Error(t, err)

		// The error is remembered.
		_, err = container.SecretRepository()
		assert.Error(t, err)
	})
}

func TestContainerCryptoService(t *testing.T) {
	ctx := context.Background()

	t.Run("no key and no generation", func(t *testing.T) {
		cfg := testConfig(t)
		container := newTestContainer(t, cfg, keyring.NewArrayKeyring(nil), &bytes.Buffer{})

		_, err := container.CryptoService(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyUnavailable)

		_, err = container.SecretUseCase(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterKeyUnavailable)
	})

	t.Run("init generates, displays and stores the key", func(t *testing.T) {
		cfg := testConfig(t)
		ring := keyring.NewArrayKeyring(nil)
		var out bytes.Buffer
		container := newTestContainer(t, cfg, ring, &out)

		svc, err := container.InitCryptoService(ctx)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Generated new master key")
		assert.Contains(t, out.String(), "Stored in OS keyring")

		same, err := container.CryptoService(ctx)
		require.NoError(t, err)
		assert.Same(t, svc, same)

		item, err := ring.Get("dmk")
		require.NoError(t, err)
		assert.Contains(t, out.String(), string(item.Data))
	})

	t.Run("inline key skips the keyring", func(t *testing.T) {
		cfg := testConfig(t)
		key := make([]byte, cryptoDomain.KeySize)
		_, err := rand.Read(key)
		require.NoError(t, err)
		cfg.MasterKey = base64.StdEncoding.EncodeToString(key)
		ring := keyring.NewArrayKeyring(nil)
		var out bytes.Buffer
		container := newTestContainer(t, cfg, ring, &out)

		_, err = container.InitCryptoService(ctx)
		require.NoError(t, err)
		assert.Empty(t, out.String())

		keys, err := ring.Keys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("kms codec wraps the stored key", func(t *testing.T) {
		cfg := testConfig(t)
		wrapping := make([]byte, 32)
		_, err := rand.Read(wrapping)
		require.NoError(t, err)
		cfg.KMSKeyURI = "base64key://" + base64.URLEncoding.EncodeToString(wrapping)
		ring := keyring.NewArrayKeyring(nil)
		container := newTestContainer(t, cfg, ring, &bytes.Buffer{})

		codec, err := container.KeyCodec(ctx)
		require.NoError(t, err)
		assert.IsType(t, &cryptoService.KMSKeyCodec{}, codec)

		_, err = container.InitCryptoService(ctx)
		require.NoError(t, err)

		item, err := ring.Get("dmk")
		require.NoError(t, err)
		_, err = cryptoDomain.DecodeMasterKey(string(item.Data))
		assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeyFormat, "stored value must be wrapped, not a raw key")
	})
}

func TestContainerSecretUseCase(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	ring := keyring.NewArrayKeyring(nil)

	first := NewContainer(cfg,
		WithOutput(&bytes.Buffer{}),
		WithLogOutput(&bytes.Buffer{}),
		WithCredentialStore(cryptoService.NewKeyringStoreFromKeyring(ring, "devinventory", "dmk")),
	)
	_, err := first.InitCryptoService(ctx)
	require.NoError(t, err)
	uc, err := first.SecretUseCase(ctx)
	require.NoError(t, err)
	_, err = uc.Add(ctx, &secretsDomain.AddSecretInput{Name: "api-key", Value: []byte("value")})
	require.NoError(t, err)
	require.NoError(t, first.Shutdown(ctx))

	// A second invocation finds the key in the keyring.
	second := newTestContainer(t, cfg, ring, &bytes.Buffer{})
	uc, err = second.SecretUseCase(ctx)
	require.NoError(t, err)

	secret, err := uc.Get(ctx, "api-key")
	require.NoError(t, err)
	defer secret.Zero()
	assert.Equal(t, "value", string(secret.Plaintext))
}

func TestContainerShutdown(t *testing.T) {
	ctx := context.Background()

	t.Run("writes metrics textfile", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.MetricsEnabled = true
		cfg.MetricsTextfile = filepath.Join(t.TempDir(), "devinventory.prom")
		container := NewContainer(cfg, WithOutput(&bytes.Buffer{}), WithLogOutput(&bytes.Buffer{}),
			WithCredentialStore(cryptoService.NewKeyringStoreFromKeyring(keyring.NewArrayKeyring(nil), "s", "a")))

		_, err := container.InitCryptoService(ctx)
		require.NoError(t, err)
		uc, err := container.SecretUseCase(ctx)
		require.NoError(t, err)
		_, err = uc.List(ctx)
		require.NoError(t, err)

		require.NoError(t, container.Shutdown(ctx))

		raw, err := os.ReadFile(cfg.MetricsTextfile)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(raw), "devinventory_operations_total"))
		assert.Contains(t, string(raw), `operation="secret_list"`)
	})

	t.Run("closes crypto service", func(t *testing.T) {
		cfg := testConfig(t)
		container := NewContainer(cfg, WithOutput(&bytes.Buffer{}), WithLogOutput(&bytes.Buffer{}),
			WithCredentialStore(cryptoService.NewKeyringStoreFromKeyring(keyring.NewArrayKeyring(nil), "s", "a")))

		svc, err := container.InitCryptoService(ctx)
		require.NoError(t, err)
		require.NoError(t, container.Shutdown(ctx))

		_, err = svc.Encrypt("name", []byte("x"))
		assert.ErrorIs(t, err, cryptoDomain.ErrCryptoServiceClosed)
	})

	t.Run("nothing initialized", func(t *testing.T) {
		container := NewContainer(testConfig(t))
		assert.NoError(t, container.Shutdown(ctx))
	})
}
