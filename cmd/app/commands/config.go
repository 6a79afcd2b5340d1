package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/allisson/devinventory/internal/config"
	cryptoDomain "github.com/allisson/devinventory/internal/crypto/domain"
	"github.com/allisson/devinventory/internal/database"
)

// RunConfigExample prints a sample .env file with every supported setting.
func RunConfigExample(writer io.Writer) error {
	if err := config.WriteExample(writer); err != nil {
		return fmt.Errorf("failed to write example configuration: %w", err)
	}
	return nil
}

// RunConfigPath prints where the store and the master key live for cfg.
func RunConfigPath(cfg *config.Config, store cryptoDomain.CredentialStore, writer io.Writer) error {
	switch {
	case cfg.DBDriver == database.DriverSQLite && cfg.DBConnectionString == "":
		_, _ = fmt.Fprintf(writer, "database: %s (%s)\n", cfg.DBPath, cfg.DBDriver)
	default:
		_, _ = fmt.Fprintf(writer, "database: %s connection string\n", cfg.DBDriver)
	}

	if cfg.KeyringEnabled && store != nil {
		_, _ = fmt.Fprintf(writer, "keyring: %s\n", store.Location())
	} else {
		_, _ = fmt.Fprintln(writer, "keyring: disabled")
	}

	// Only the scheme: base64key:// URIs embed key material.
	if scheme, _, ok := strings.Cut(cfg.KMSKeyURI, "://"); ok {
		_, _ = fmt.Fprintf(writer, "kms: %s\n", scheme)
	}

	_, err := fmt.Fprintf(writer, "inline master key: %t\n", cfg.MasterKey != "")
	return err
}
