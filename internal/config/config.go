package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	Storage             string   `mapstructure:"STORAGE"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	BackendURL          string   `mapstructure:"BACKEND_URL"`
	RxNormURL           string   `mapstructure:"RXNORM_URL"`
	LocatorURL          string   `mapstructure:"LOCATOR_URL"`
	HTTPTimeoutSeconds  int      `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	AITimeoutSeconds    int      `mapstructure:"AI_TIMEOUT_SECONDS"`
	ReminderPollSeconds int      `mapstructure:"REMINDER_POLL_SECONDS"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
	AuthSigningKey      string   `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer          string   `mapstructure:"AUTH_ISSUER"`
	RateLimitRPS        float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int      `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "STORAGE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"BACKEND_URL", "RXNORM_URL", "LOCATOR_URL",
	"HTTP_TIMEOUT_SECONDS", "AI_TIMEOUT_SECONDS", "REMINDER_POLL_SECONDS",
	"CORS_ORIGINS", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

// Load reads .env when present, then the environment. It does not validate;
// call Validate before serving.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE", StorageMemory)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("BACKEND_URL", "http://localhost:5000")
	v.SetDefault("RXNORM_URL", "https://rxnav.nlm.nih.gov")
	v.SetDefault("LOCATOR_URL", "https://women-app.onrender.com")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 10)
	v.SetDefault("AI_TIMEOUT_SECONDS", 30)
	v.SetDefault("REMINDER_POLL_SECONDS", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	// Bind explicitly so Unmarshal sees variables without defaults.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Env values arrive as one comma-separated string.
	if origins := v.GetString("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) ReminderPollInterval() time.Duration {
	return time.Duration(c.ReminderPollSeconds) * time.Second
}

func absoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
	}
	return nil
}

// Validate checks cross-field rules.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE is %q", StoragePostgres)
		}
		if c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
		}
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage)
	}

	for name, raw := range map[string]string{
		"BACKEND_URL": c.BackendURL,
		"RXNORM_URL":  c.RxNormURL,
		"LOCATOR_URL": c.LocatorURL,
	} {
		if err := absoluteURL(name, raw); err != nil {
			return err
		}
	}

	if c.HTTPTimeoutSeconds <= 0 || c.AITimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS and AI_TIMEOUT_SECONDS must be positive")
	}
	if c.ReminderPollSeconds <= 0 {
		return fmt.Errorf("REMINDER_POLL_SECONDS must be positive, got %d", c.ReminderPollSeconds)
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst < 1) {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set")
	}

	// Outside development every request needs a verifiable token.
	if !c.IsDev() && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY of at least 32 bytes is required when ENV=%q", c.Env)
	}
	return nil
}
