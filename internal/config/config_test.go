package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameportal/internal/dependencies/mocks"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookupDefaults(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueString("generated-secret")

	cfg, err := FromLookup(lookupFrom(nil), rnd)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, 24*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 365*24*time.Hour, cfg.RememberDuration)
	assert.Equal(t, "generated-secret", cfg.SessionSecret)
	assert.True(t, cfg.SecretGenerated)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestFromLookupReadsEnvironment(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"PORT":              "9000",
		"STORAGE_TYPE":      "Redis",
		"REDIS_URL":         "redis://localhost:6379/0",
		"SESSION_SECRET":    "s3cret",
		"SESSION_DURATION":  "2h",
		"REMEMBER_DURATION": "720h",
		"BCRYPT_COST":       "12",
		"LOGIN_RATE_LIMIT":  "0.5",
		"LOGIN_RATE_BURST":  "3",
		"LOG_LEVEL":         "debug",
		"COOKIE_SECURE":     "true",
		"TRUSTED_PROXIES":   "10.0.0.0/8, 192.168.1.1",
	}), mocks.NewMockRandom())
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "redis", cfg.StorageType)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.False(t, cfg.SecretGenerated)
	assert.Equal(t, 2*time.Hour, cfg.SessionDuration)
	assert.Equal(t, 720*time.Hour, cfg.RememberDuration)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.InDelta(t, 0.5, cfg.LoginRateLimit, 0.0001)
	assert.Equal(t, 3, cfg.LoginRateBurst)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
}

func TestFromLookupRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad port":          {"PORT": "eighty"},
		"bad duration":      {"SESSION_DURATION": "forever"},
		"unknown storage":   {"STORAGE_TYPE": "mongo"},
		"redis without url": {"STORAGE_TYPE": "redis"},
		"pg without url":    {"STORAGE_TYPE": "postgres"},
		"zero rate":         {"LOGIN_RATE_LIMIT": "0"},
		"bad log level":     {"LOG_LEVEL": "loud"},
		"bad secure flag":   {"COOKIE_SECURE": "maybe"},
		"negative remember": {"REMEMBER_DURATION": "-1h"},
		"cost too low":      {"BCRYPT_COST": "3"},
		"cost too high":     {"BCRYPT_COST": "32"},
		"bad proxy":         {"TRUSTED_PROXIES": "10.0.0.0/8,not-an-ip"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(env), mocks.NewMockRandom())
			assert.Error(t, err)
		})
	}
}

func TestValidateBcryptCostBounds(t *testing.T) {
	cfg := Default()

	cfg.BcryptCost = bcrypt.MinCost
	assert.NoError(t, cfg.Validate())

	cfg.BcryptCost = bcrypt.MaxCost
	assert.NoError(t, cfg.Validate())

	cfg.BcryptCost = bcrypt.MinCost - 1
	assert.ErrorContains(t, cfg.Validate(), "BCRYPT_COST")

	cfg.BcryptCost = bcrypt.MaxCost + 1
	assert.ErrorContains(t, cfg.Validate(), "BCRYPT_COST")
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_CONFIG_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PORTAL_CONFIG_TEST_VALUE") })

	_, err := Load(mocks.NewMockRandom(), path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", os.Getenv("PORTAL_CONFIG_TEST_VALUE"))
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(mocks.NewMockRandom(), filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
