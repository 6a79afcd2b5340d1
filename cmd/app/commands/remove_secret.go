package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	secretsUseCase "github.com/allisson/devinventory/internal/secrets/usecase"
)

// RunRemoveSecret deletes a secret. A missing secret is reported, not returned as an error.
func RunRemoveSecret(
	ctx context.Context,
	secretUseCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name string,
) error {
	deleted, err := secretUseCase.Delete(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to remove secret: %w", err)
	}

	if !deleted {
		logger.Warn("secret not found for removal", slog.String("name", name))
		notice(writer, "not found: %s", name)
		return nil
	}

	logger.Info("secret removed", slog.String("name", name))
	success(writer, "removed: %s", name)
	return nil
}
