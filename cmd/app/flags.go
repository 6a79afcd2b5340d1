package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/allisson/devinventory/internal/app"
	"github.com/allisson/devinventory/internal/config"
)

// globalFlags override the environment configuration for one invocation.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "db-path",
			Usage: "SQLite database file (overrides DEVINVENTORY_DB_PATH)",
		},
		&cli.StringFlag{
			Name:    "master-key",
			Aliases: []string{"dmk"},
			Usage:   "Base64 master key (overrides DEVINVENTORY_MASTER_KEY and the keyring)",
		},
		&cli.BoolFlag{
			Name:  "no-keyring",
			Usage: "Never read or write the OS keyring",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn or error (overrides DEVINVENTORY_LOG_LEVEL)",
		},
	}
}

// loadConfig loads the environment configuration, applies the global flags and
// validates the result.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg := config.Load()
	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	if v := cmd.String("db-path"); v != "" {
		cfg.DBPath = v
	}
	if v := cmd.String("master-key"); v != "" {
		cfg.MasterKey = v
	}
	if cmd.Bool("no-keyring") {
		cfg.KeyringEnabled = false
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
}

// newContainer builds the container for one command invocation.
func newContainer(cmd *cli.Command) (*app.Container, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.NewContainer(cfg), nil
}

// shutdown releases the container and logs cleanup failures.
func shutdown(ctx context.Context, container *app.Container) {
	if err := container.Shutdown(ctx); err != nil {
		container.Logger().Error("failed to shutdown container", slog.Any("error", err))
	}
}
