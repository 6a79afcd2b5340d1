package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	secretsUseCase "github.com/allisson/devinventory/internal/secrets/usecase"
)

// RunListSecrets prints the metadata of every secret. Values are never decrypted.
func RunListSecrets(
	ctx context.Context,
	secretUseCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	items, err := secretUseCase.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}

	logger.Info("secrets listed", slog.Int("count", len(items)))
	return outputMetadata(writer, items, format)
}

// RunSearchSecrets prints the metadata of secrets whose name, kind or note
// contains query.
func RunSearchSecrets(
	ctx context.Context,
	secretUseCase secretsUseCase.SecretUseCase,
	logger *slog.Logger,
	writer io.Writer,
	query, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	items, err := secretUseCase.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to search secrets: %w", err)
	}

	logger.Info("secrets searched", slog.String("query", query), slog.Int("count", len(items)))
	return outputMetadata(writer, items, format)
}
