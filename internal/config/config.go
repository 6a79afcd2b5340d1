// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	"github.com/allisson/devinventory/internal/database"
	customValidation "github.com/allisson/devinventory/internal/validation"
)

// appDirName is the directory under the user configuration directory that holds
// the default database and the file keyring.
const appDirName = "devinventory"

// Config holds all application configuration.
type Config struct {
	// DBDriver is the database driver to use ("sqlite", "postgres" or "mysql").
	DBDriver string
	// DBPath is the SQLite database file. Ignored by the other drivers.
	DBPath string
	// DBConnectionString is the connection string for the database. For sqlite it is
	// derived from DBPath when empty.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string
	// LogFormat is the log handler format ("text" or "json").
	LogFormat string

	// MasterKey is an inline base64 master key. It takes precedence over the keyring.
	MasterKey string
	// KeyringEnabled controls whether the OS keyring is read and written.
	KeyringEnabled bool
	// KeyringService is the service name of the keyring entry.
	KeyringService string
	// KeyringAccount is the account name of the keyring entry.
	KeyringAccount string
	// KeyringBackend forces one keyring backend (e.g., "keychain", "secret-service", "file").
	KeyringBackend string
	// KeyringFileDir is the directory of the encrypted file backend.
	KeyringFileDir string
	// KeyringFilePassword unlocks the file backend without prompting.
	KeyringFilePassword string

	// KMSKeyURI wraps the stored and displayed master key with a KMS key when set.
	KMSKeyURI string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsTextfile is where collected metrics are written on exit. Empty disables the export.
	MetricsTextfile string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	appDir := defaultAppDir()

	return &Config{
		// Database configuration
		DBDriver:             env.GetString("DEVINVENTORY_DB_DRIVER", database.DriverSQLite),
		DBPath:               env.GetString("DEVINVENTORY_DB_PATH", filepath.Join(appDir, "secrets.db")),
		DBConnectionString:   env.GetString("DEVINVENTORY_DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DEVINVENTORY_DB_MAX_OPEN_CONNECTIONS", 5),
		DBMaxIdleConnections: env.GetInt("DEVINVENTORY_DB_MAX_IDLE_CONNECTIONS", 2),
		DBConnMaxLifetime:    env.GetDuration("DEVINVENTORY_DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Logging
		LogLevel:  env.GetString("DEVINVENTORY_LOG_LEVEL", "warn"),
		LogFormat: env.GetString("DEVINVENTORY_LOG_FORMAT", "text"),

		// Master key
		MasterKey:           env.GetString("DEVINVENTORY_MASTER_KEY", ""),
		KeyringEnabled:      env.GetBool("DEVINVENTORY_KEYRING_ENABLED", true),
		KeyringService:      env.GetString("DEVINVENTORY_KEYRING_SERVICE", "devinventory"),
		KeyringAccount:      env.GetString("DEVINVENTORY_KEYRING_ACCOUNT", "dmk"),
		KeyringBackend:      env.GetString("DEVINVENTORY_KEYRING_BACKEND", ""),
		KeyringFileDir:      env.GetString("DEVINVENTORY_KEYRING_FILE_DIR", filepath.Join(appDir, "keyring")),
		KeyringFilePassword: env.GetString("DEVINVENTORY_KEYRING_FILE_PASSWORD", ""),

		// KMS configuration
		KMSKeyURI: env.GetString("DEVINVENTORY_KMS_KEY_URI", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("DEVINVENTORY_METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("DEVINVENTORY_METRICS_NAMESPACE", "devinventory"),
		MetricsTextfile:  env.GetString("DEVINVENTORY_METRICS_TEXTFILE", ""),
	}
}

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.DBDriver,
			validation.Required,
			validation.In(database.DriverSQLite, database.DriverPostgres, database.DriverMySQL),
		),
		validation.Field(&c.DBPath,
			validation.When(c.DBDriver == database.DriverSQLite && c.DBConnectionString == "", validation.Required),
		),
		validation.Field(&c.DBConnectionString,
			validation.When(c.DBDriver != database.DriverSQLite, validation.Required),
		),
		validation.Field(&c.DBMaxOpenConnections, validation.Required, validation.Min(1)),
		validation.Field(&c.DBMaxIdleConnections, validation.Min(0)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.MasterKey, customValidation.Base64),
		validation.Field(&c.KeyringService,
			validation.When(c.KeyringEnabled, validation.Required, customValidation.NoWhitespace),
		),
		validation.Field(&c.KeyringAccount,
			validation.When(c.KeyringEnabled, validation.Required, customValidation.NoWhitespace),
		),
		validation.Field(&c.MetricsNamespace, validation.When(c.MetricsEnabled, validation.Required)),
	)
	return customValidation.WrapValidationError(err)
}

// DatabaseConnectionString returns the connection string handed to the driver.
//
// For sqlite without an explicit connection string it is built from DBPath with
// the pragmas every connection needs.
func (c *Config) DatabaseConnectionString() string {
	if c.DBConnectionString != "" || c.DBDriver != database.DriverSQLite {
		return c.DBConnectionString
	}
	return database.SQLiteDSN(c.DBPath)
}

// defaultAppDir returns the per-user application directory, falling back to the
// working directory when the platform reports none.
func defaultAppDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return appDirName
	}
	return filepath.Join(dir, appDirName)
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
