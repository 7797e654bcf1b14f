package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for sop-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables; environment variables always override YAML values. Secrets
// (passwords, keys) must only come from environment variables.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""`
	Version  string `yaml:"-"` // Set at load time, not from config

	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Janitor  JanitorConfig  `yaml:"janitor"`
	Admin    AdminConfig    `yaml:"admin"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// CredentialsKey encrypts stored per-user upstream API keys. Must be a
	// 32-byte key, base64 encoded (openssl rand -base64 32) or any
	// passphrase. Server fails to start if unset.
	CredentialsKey string `yaml:"-" env:"CREDENTIALS_KEY"` // Secret - not in YAML
}

// AuthConfig holds session and token settings.
type AuthConfig struct {
	// SessionSecret signs session tokens and cookies.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// TokenTTLHours is the lifetime of an issued session token.
	TokenTTLHours int `yaml:"token_ttl_hours" env:"TOKEN_TTL_HOURS" env-default:"24"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"sopforge"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"sop_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// URL renders the pgx connection string.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// UpstreamConfig selects and configures the generative-AI provider.
type UpstreamConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"UPSTREAM_PROVIDER" env-default:"openai"`

	// BaseURL is the OpenAI-compatible endpoint base URL. Ignored by the
	// anthropic provider.
	BaseURL string `yaml:"base_url" env:"UPSTREAM_BASE_URL" env-default:"https://api.openai.com/v1"`

	Model string `yaml:"model" env:"UPSTREAM_MODEL" env-default:"gpt-4o-mini"`

	// APIKey is the process-wide fallback credential used when the
	// requesting user has not stored one of their own.
	APIKey string `yaml:"-" env:"UPSTREAM_API_KEY"` // Secret - not in YAML

	Temperature     float64 `yaml:"temperature" env:"UPSTREAM_TEMPERATURE" env-default:"0.7"`
	MaxOutputTokens int     `yaml:"max_output_tokens" env:"UPSTREAM_MAX_OUTPUT_TOKENS" env-default:"16000"`
}

// AdminConfig bootstraps the initial administrator account. When email and
// password are both set and no account with that email exists, the server
// creates it at startup.
type AdminConfig struct {
	Name     string `yaml:"name" env:"ADMIN_NAME" env-default:"Administrator"`
	Email    string `yaml:"-" env:"ADMIN_EMAIL"`
	Password string `yaml:"-" env:"ADMIN_PASSWORD"` // Secret - not in YAML
}

// JanitorConfig controls the orphaned-record sweep. Records created but never
// finalized (empty body) are deleted once older than the grace window.
type JanitorConfig struct {
	// SweepIntervalMinutes is how often the sweep runs. 0 disables it.
	SweepIntervalMinutes int `yaml:"sweep_interval_minutes" env:"JANITOR_SWEEP_INTERVAL_MINUTES" env-default:"60"`

	// OrphanGraceHours is how old an empty record must be before deletion.
	OrphanGraceHours int `yaml:"orphan_grace_hours" env:"JANITOR_ORPHAN_GRACE_HOURS" env-default:"24"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. If the file does not exist, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.CredentialsKey == "" {
		return fmt.Errorf("CREDENTIALS_KEY must be set")
	}
	if c.Auth.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set")
	}
	switch c.Upstream.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("invalid upstream provider: %s", c.Upstream.Provider)
	}
	return nil
}
