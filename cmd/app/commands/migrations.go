package commands

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/devinventory/internal/database"
)

// RunMigrations applies pending database migrations for the configured driver.
// Returns nil when the schema is already current.
func RunMigrations(db *sql.DB, driver string, logger *slog.Logger, writer io.Writer) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	if err := database.Migrate(db, driver, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	success(writer, "migrations applied (%s)", driver)
	return nil
}
