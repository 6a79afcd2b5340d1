package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/devinventory/internal/app"
	"github.com/allisson/devinventory/internal/database"
)

// RunInit creates the store, applies migrations and resolves the master key,
// generating, displaying and storing a new one when none exists yet.
func RunInit(ctx context.Context, container *app.Container, logger *slog.Logger, writer io.Writer) error {
	cfg := container.Config()

	if _, err := container.DB(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := container.InitCryptoService(ctx); err != nil {
		return fmt.Errorf("failed to initialize master key: %w", err)
	}

	location := cfg.DBDriver
	if cfg.DBDriver == database.DriverSQLite && cfg.DBConnectionString == "" {
		location = cfg.DBPath
	}

	success(writer, "database ready: %s", location)
	success(writer, "master key initialized")

	logger.Info("store initialized", slog.String("driver", cfg.DBDriver))
	return nil
}
