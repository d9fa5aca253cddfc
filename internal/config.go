package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/taskflow/internal/autosave"
	"github.com/starford/taskflow/internal/kv"
	"github.com/starford/taskflow/internal/persist"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App         ApplicationConfig `yaml:"app"`
	Storage     StorageConfig     `yaml:"storage"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Exchange    ExchangeConfig    `yaml:"exchange"`
	Auth        AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Persistence.Validate(); err != nil {
		return fmt.Errorf("persistence: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the key-value medium.
//
// Path is the database file for the sqlite driver and the data directory
// for fs. QuotaBytes of zero means unlimited.
type StorageConfig struct {
	Driver     string `yaml:"driver"`
	Path       string `yaml:"path"`
	QuotaBytes int64  `yaml:"quota_bytes"`
	Namespace  string `yaml:"namespace"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(kv.DriverMemory, kv.DriverSQLite, kv.DriverFS)),
		validation.Field(&c.Path, validation.When(c.Driver != kv.DriverMemory, validation.Required)),
		validation.Field(&c.QuotaBytes, validation.Min(int64(0))),
		validation.Field(&c.Namespace, validation.Required),
	)
}

// PersistenceConfig tunes the save loop and snapshot pruning.
type PersistenceConfig struct {
	AutosaveInterval  time.Duration `yaml:"autosave_interval"`
	SnapshotRetention int           `yaml:"snapshot_retention"`
}

// Validate validates the persistence configuration.
func (c *PersistenceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.AutosaveInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SnapshotRetention, validation.Required, validation.Min(1)),
	)
}

// ExchangeConfig holds the import inbox directory. An empty InboxDir
// disables the inbox watcher.
type ExchangeConfig struct {
	InboxDir string `yaml:"inbox_dir"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver:     kv.DriverSQLite,
			Path:       "./taskflow.db",
			QuotaBytes: kv.DefaultQuota,
			Namespace:  persist.DefaultNamespace,
		},
		Persistence: PersistenceConfig{
			AutosaveInterval:  autosave.DefaultInterval,
			SnapshotRetention: persist.DefaultRetention,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
