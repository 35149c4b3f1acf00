package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the SDK and tooling.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Secrets   SecretsConfig   `yaml:"secrets"`
	Media     MediaConfig     `yaml:"media"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	DevServer DevServerConfig `yaml:"devServer"`
}

// APIConfig controls the outbound transport client.
type APIConfig struct {
	BaseURL        string            `yaml:"baseUrl"`
	Timeout        time.Duration     `yaml:"timeout"`
	Retries        int               `yaml:"retries"`
	RetryDelay     time.Duration     `yaml:"retryDelay"`
	DefaultHeaders map[string]string `yaml:"defaultHeaders"`
	RateLimit      RateLimitConfig   `yaml:"rateLimit"`
}

// RateLimitConfig throttles outbound calls before they leave the process.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

// SessionConfig drives credential lifecycle behavior.
type SessionConfig struct {
	TokenKey      string        `yaml:"tokenKey"`
	TokenTTL      time.Duration `yaml:"tokenTtl"`
	LogoutTimeout time.Duration `yaml:"logoutTimeout"`
}

// SecretsConfig selects and configures the secure key-value store.
type SecretsConfig struct {
	Backend       string `yaml:"backend"` // file, memory, or valkey
	Path          string `yaml:"path"`
	EncryptionKey string `yaml:"encryptionKey"`
	ValkeyAddr    string `yaml:"valkeyAddr"`
	ValkeyPrefix  string `yaml:"valkeyPrefix"`
}

// MediaConfig contains S3-compatible storage settings for attachments.
type MediaConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
}

// OAuthConfig holds provider sign-in settings.
type OAuthConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RedirectURL  string `yaml:"redirectUrl"`
	IssuerURL    string `yaml:"issuerUrl"`
}

// DevServerConfig controls the local stub backend.
type DevServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	TokenSecret  string        `yaml:"tokenSecret"`
	TokenTTL     time.Duration `yaml:"tokenTtl"`
	Postgres     PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings for the dev server.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOPE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("DOPE_API_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = parsed
		}
	}
	if v := os.Getenv("DOPE_API_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.API.Retries = parsed
		}
	}
	if v := os.Getenv("DOPE_API_RETRY_DELAY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.API.RetryDelay = parsed
		}
	}
	if v := os.Getenv("DOPE_API_RATE_LIMIT_ENABLED"); v != "" {
		cfg.API.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("DOPE_API_RATE_LIMIT_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.API.RateLimit.RequestsPerSecond = parsed
		}
	}
	if v := os.Getenv("DOPE_API_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.API.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("DOPE_SESSION_TOKEN_KEY"); v != "" {
		cfg.Session.TokenKey = v
	}
	if v := os.Getenv("DOPE_SESSION_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Session.TokenTTL = parsed
		}
	}
	if v := os.Getenv("DOPE_SECRETS_BACKEND"); v != "" {
		cfg.Secrets.Backend = v
	}
	if v := os.Getenv("DOPE_SECRETS_PATH"); v != "" {
		cfg.Secrets.Path = v
	}
	if v := os.Getenv("DOPE_SECRETS_KEY"); v != "" {
		cfg.Secrets.EncryptionKey = v
	}
	if v := os.Getenv("DOPE_SECRETS_VALKEY_ADDR"); v != "" {
		cfg.Secrets.ValkeyAddr = v
	}
	if v := os.Getenv("DOPE_MEDIA_ENABLED"); v != "" {
		cfg.Media.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("DOPE_MEDIA_ENDPOINT"); v != "" {
		cfg.Media.Endpoint = v
	}
	if v := os.Getenv("DOPE_MEDIA_ACCESS_KEY"); v != "" {
		cfg.Media.AccessKey = v
	}
	if v := os.Getenv("DOPE_MEDIA_SECRET_KEY"); v != "" {
		cfg.Media.SecretKey = v
	}
	if v := os.Getenv("DOPE_MEDIA_BUCKET"); v != "" {
		cfg.Media.Bucket = v
	}
	if v := os.Getenv("DOPE_OAUTH_CLIENT_ID"); v != "" {
		cfg.OAuth.ClientID = v
	}
	if v := os.Getenv("DOPE_OAUTH_CLIENT_SECRET"); v != "" {
		cfg.OAuth.ClientSecret = v
	}
	if v := os.Getenv("DOPE_OAUTH_REDIRECT_URL"); v != "" {
		cfg.OAuth.RedirectURL = v
	}
	if v := os.Getenv("DOPE_OAUTH_ISSUER_URL"); v != "" {
		cfg.OAuth.IssuerURL = v
	}
	if v := os.Getenv("DEVSERVER_ADDRESS"); v != "" {
		cfg.DevServer.Address = v
	}
	if v := os.Getenv("DEVSERVER_TOKEN_SECRET"); v != "" {
		cfg.DevServer.TokenSecret = v
	}
	if v := os.Getenv("DEVSERVER_POSTGRES_DSN"); v != "" {
		cfg.DevServer.Postgres.DSN = v
	}
	if v := os.Getenv("DEVSERVER_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.DevServer.Postgres.MaxConns = int32(parsed)
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "https://api.dopenetwork.com",
			Timeout:    60 * time.Second,
			Retries:    3,
			RetryDelay: time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 10,
				Burst:             20,
			},
		},
		Session: SessionConfig{
			TokenKey:      "dope.session.token",
			TokenTTL:      7 * 24 * time.Hour,
			LogoutTimeout: 5 * time.Second,
		},
		Secrets: SecretsConfig{
			Backend:      "file",
			Path:         "dope-secrets.json",
			ValkeyPrefix: "dope",
		},
		OAuth: OAuthConfig{
			IssuerURL: "https://accounts.google.com",
		},
		DevServer: DevServerConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			TokenSecret:  "dev-only-secret",
			TokenTTL:     24 * time.Hour,
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.baseUrl cannot be empty")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.API.Retries < 0 {
		return errors.New("api.retries cannot be negative")
	}
	if c.API.RetryDelay < 0 {
		return errors.New("api.retryDelay cannot be negative")
	}
	if c.API.RateLimit.Enabled {
		if c.API.RateLimit.RequestsPerSecond <= 0 {
			return errors.New("api.rateLimit.requestsPerSecond must be positive")
		}
		if c.API.RateLimit.Burst <= 0 {
			return errors.New("api.rateLimit.burst must be positive")
		}
	}
	if c.Session.TokenKey == "" {
		return errors.New("session.tokenKey cannot be empty")
	}
	if c.Session.TokenTTL <= 0 {
		return errors.New("session.tokenTtl must be positive")
	}
	if c.Session.LogoutTimeout <= 0 {
		return errors.New("session.logoutTimeout must be positive")
	}
	switch c.Secrets.Backend {
	case "file":
		if strings.TrimSpace(c.Secrets.Path) == "" {
			return errors.New("secrets.path cannot be empty for the file backend")
		}
	case "memory":
	case "valkey":
		if strings.TrimSpace(c.Secrets.ValkeyAddr) == "" {
			return errors.New("secrets.valkeyAddr cannot be empty for the valkey backend")
		}
	default:
		return fmt.Errorf("secrets.backend %q is not supported", c.Secrets.Backend)
	}
	if c.Media.Enabled {
		if c.Media.Endpoint == "" || c.Media.Bucket == "" {
			return errors.New("media.endpoint and media.bucket are required when media is enabled")
		}
	}
	if c.DevServer.Address == "" {
		return errors.New("devServer.address cannot be empty")
	}
	if c.DevServer.TokenSecret == "" {
		return errors.New("devServer.tokenSecret cannot be empty")
	}
	return nil
}
