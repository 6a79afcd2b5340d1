package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	cryptoService "github.com/allisson/devinventory/internal/crypto/service"
	secretsUseCase "github.com/allisson/devinventory/internal/secrets/usecase"
)

// MasterKeyRotator generates replacement master keys and writes keys back to the
// credential store. Implemented by cryptoService.MasterKeyProvider.
type MasterKeyRotator interface {
	Rotate(ctx context.Context) (*cryptoDomain.MasterKey, error)
	Store(ctx context.Context, key *cryptoDomain.MasterKey) error
	Display(ctx context.Context, header string, key *cryptoDomain.MasterKey) error
}

// RunRotateMasterKey replaces the master key and re-encrypts every secret under it.
//
// The new key is displayed and stored before any secret is touched. If re-encryption
// fails nothing in the store changes, and the current key is written back to the
// credential store; when that also fails the current key is displayed instead.
func RunRotateMasterKey(
	ctx context.Context,
	current *cryptoService.CryptoService,
	rotator MasterKeyRotator,
	secretUseCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	newKey, err := rotator.Rotate(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate new master key: %w", err)
	}

	next, err := cryptoService.NewCryptoService(newKey)
	if err != nil {
		return fmt.Errorf("failed to create crypto service: %w", err)
	}
	defer next.Close()

	count, err := secretUseCase.ReencryptAll(ctx, current, next)
	if err != nil {
		restoreMasterKey(ctx, current, rotator, logger, writer)
		return fmt.Errorf("rotation aborted, secrets remain encrypted under the previous master key: %w", err)
	}

	logger.Info("master key rotated", slog.Int("count", count))
	success(writer, "master key rotated; %d secret(s) re-encrypted", count)
	notice(writer, "remember to back up the new master key")
	return nil
}

func restoreMasterKey(
	ctx context.Context,
	current *cryptoService.CryptoService,
	rotator MasterKeyRotator,
	logger *slog.Logger,
	writer io.Writer,
) {
	err := current.WithKey(func(key *cryptoDomain.MasterKey) error {
		return rotator.Store(ctx, key)
	})
	if err == nil {
		notice(writer, "the previous master key is active again")
		return
	}

	logger.Error("failed to restore previous master key", slog.Any("error", err))
	err = current.WithKey(func(key *cryptoDomain.MasterKey) error {
		return rotator.Display(ctx, "Previous master key, still protecting every secret", key)
	})
	if err != nil {
		logger.Error("failed to display previous master key", slog.Any("error", err))
	}
}
