package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameportal/internal/dependencies/random"
	"github.com/mcoot/gameportal/internal/middleware"
)

const generatedSecretLength = 48

// Config is the server's runtime configuration
type Config struct {
	Port             int
	StorageType      string
	RedisURL         string
	DatabaseURL      string
	SessionSecret    string
	SessionDuration  time.Duration
	RememberDuration time.Duration
	BcryptCost       int
	LoginRateLimit   float64
	LoginRateBurst   int
	LogLevel         slog.Level
	CookieSecure     bool

	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For header is honoured when resolving client IPs
	TrustedProxies []string

	// SecretGenerated is set when no SESSION_SECRET was provided
	SecretGenerated bool
}

// Default returns the configuration used when no environment is set
func Default() Config {
	return Config{
		Port:             8080,
		StorageType:      "memory",
		SessionDuration:  24 * time.Hour,
		RememberDuration: 365 * 24 * time.Hour,
		BcryptCost:       10,
		LoginRateLimit:   5,
		LoginRateBurst:   10,
		LogLevel:         slog.LevelInfo,
	}
}

// Load reads an optional .env file and then the process environment
func Load(rnd random.Random, files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromLookup(os.LookupEnv, rnd)
}

// FromLookup builds a Config from an environment lookup function
func FromLookup(lookup func(string) (string, bool), rnd random.Random) (Config, error) {
	cfg := Default()
	var err error

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("PORT"); ok {
		if cfg.Port, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("PORT: %w", err)
		}
	}
	if v, ok := get("STORAGE_TYPE"); ok {
		cfg.StorageType = strings.ToLower(v)
	}
	cfg.RedisURL, _ = get("REDIS_URL")
	cfg.DatabaseURL, _ = get("DATABASE_URL")

	if v, ok := get("SESSION_SECRET"); ok {
		cfg.SessionSecret = v
	} else {
		cfg.SessionSecret = rnd.String(generatedSecretLength, random.SecretAlphabet)
		cfg.SecretGenerated = true
	}

	if v, ok := get("SESSION_DURATION"); ok {
		if cfg.SessionDuration, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("SESSION_DURATION: %w", err)
		}
	}
	if v, ok := get("REMEMBER_DURATION"); ok {
		if cfg.RememberDuration, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("REMEMBER_DURATION: %w", err)
		}
	}
	if v, ok := get("BCRYPT_COST"); ok {
		if cfg.BcryptCost, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("BCRYPT_COST: %w", err)
		}
	}
	if v, ok := get("LOGIN_RATE_LIMIT"); ok {
		if cfg.LoginRateLimit, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("LOGIN_RATE_LIMIT: %w", err)
		}
	}
	if v, ok := get("LOGIN_RATE_BURST"); ok {
		if cfg.LoginRateBurst, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("LOGIN_RATE_BURST: %w", err)
		}
	}
	if v, ok := get("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}
	if v, ok := get("COOKIE_SECURE"); ok {
		if cfg.CookieSecure, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
	}

	if v, ok := get("TRUSTED_PROXIES"); ok {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, p)
			}
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks cross-field requirements
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or postgres", c.StorageType)
	}
	if c.SessionDuration <= 0 || c.RememberDuration <= 0 {
		return errors.New("session durations must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateBurst <= 0 {
		return errors.New("login rate limit and burst must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if _, err := middleware.NewClientIPResolver(c.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	return nil
}
