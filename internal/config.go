package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/inscribe/internal/fee"
	"github.com/starford/inscribe/internal/kv"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Storage  StorageConfig     `yaml:"storage"`
	Blobs    BlobsConfig       `yaml:"blobs"`
	Auth     AuthConfig        `yaml:"auth"`
	Fees     FeesConfig        `yaml:"fees"`
	Contract ContractConfig    `yaml:"contract"`
	MCP      MCPConfig         `yaml:"mcp"`
	Events   EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Blobs.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Contract.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
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

// StorageConfig selects the key-value backend holding contract state.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(kv.DriverSQLite, kv.DriverLevelDB, kv.DriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver != kv.DriverMemory, validation.Required)),
	)
}

// BlobsConfig holds the directory for note bodies.
type BlobsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the blob configuration.
func (c *BlobsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how callers are identified:
//   - "disabled" (default): the X-Identity header names the caller, for local dev.
//   - "token": Bearer tokens mapped to identities by TokensFile.
type AuthConfig struct {
	Mode       string `yaml:"mode"`
	TokensFile string `yaml:"tokens_file"`
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
	if c.Mode == AuthModeToken && c.TokensFile == "" {
		return fmt.Errorf("auth: mode is %q but tokens_file is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// FeesConfig controls whether charged fees are journaled to the operator.
type FeesConfig struct {
	Charge bool `yaml:"charge"`
}

// Transferer returns the fee hook selected by the configuration.
func (c *FeesConfig) Transferer() fee.Transferer {
	if c.Charge {
		return fee.Journal{}
	}
	return fee.Noop{}
}

// ContractConfig optionally initializes the contract at startup.
type ContractConfig struct {
	Operator string  `yaml:"operator"`
	Fee      *uint64 `yaml:"fee"`
}

// Validate validates the contract bootstrap configuration.
func (c *ContractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Fee, validation.When(c.Operator == "", validation.Nil.Error("requires operator"))),
	)
}

// FeeOrDefault returns the configured fee or fee.DefaultFee.
func (c *ContractConfig) FeeOrDefault() uint64 {
	if c.Fee == nil {
		return fee.DefaultFee
	}
	return *c.Fee
}

// MCPConfig names the identity the stdio tool server acts as.
type MCPConfig struct {
	Identity string `yaml:"identity"`
}

// EventsConfig tunes the SSE broker.
type EventsConfig struct {
	CounterThrottle time.Duration `yaml:"counter_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CounterThrottle, validation.Min(time.Duration(0))),
	)
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
			Driver: kv.DriverSQLite,
			Path:   "./inscribe.db",
		},
		Blobs: BlobsConfig{
			Path: "./blobs",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Events: EventsConfig{
			CounterThrottle: 2 * time.Second,
		},
	}
}
