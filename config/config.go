// Package config builds the runtime configuration once at startup from an
// optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DevEnv = "dev"
	ProEnv = "pro"
)

// Config holds runtime settings for the blog server.
//
// An empty Address in the pro environment means the server obtains
// certificates through ACME and listens on :443.
type Config struct {
	Env                string
	Address            string
	DatabaseURL        string
	SessionSecret      string
	SessionTTL         time.Duration
	EnableRegistration bool
	BodyLimit          string
	LogLevel           string
	WhitelistHost      string
	CertCacheDir       string
}

func (c *Config) IsDev() bool {
	return c.Env == DevEnv
}

// Load reads envFile into the environment, if it exists, and builds a Config
// from the environment. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults per environment.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Env:           get("ENV", ProEnv),
		Address:       get("ADDRESS_LISTEN", ""),
		DatabaseURL:   get("DB_URL", "./unhidden.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
		SessionSecret: get("SESSION_SECRET", ""),
		BodyLimit:     get("BODY_LIMIT", "50M"),
		LogLevel:      get("LOG_LEVEL", "info"),
		WhitelistHost: get("WHITELIST_HOST", ""),
		CertCacheDir:  get("CERT_CACHE_DIR", "/var/www/.cache"),
	}
	if cfg.Env != DevEnv && cfg.Env != ProEnv {
		return nil, fmt.Errorf("unknown environment %q", cfg.Env)
	}

	if cfg.IsDev() {
		if cfg.Address == "" {
			cfg.Address = ":8080"
		}
		if cfg.SessionSecret == "" {
			cfg.SessionSecret = "unsecure"
		}
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("no session secret defined")
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}
	cfg.SessionTTL = ttl

	cfg.EnableRegistration = cfg.IsDev()
	if raw, ok := lookup("ENABLE_REGISTRATION"); ok && raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("ENABLE_REGISTRATION: %w", err)
		}
		cfg.EnableRegistration = enabled
	}

	return cfg, nil
}
