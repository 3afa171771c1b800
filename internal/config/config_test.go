package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
}

func TestLoadFromFileWithDefaults(t *testing.T) {
	writeConfigFile(t, `
http:
  port: "9090"
database:
  dsn: "postgres://localhost:5432/evcharge?sslmode=disable"
auth:
  jwtSecret: "test-secret"
rules:
  bufferMinutes: 20
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddress())
	assert.Equal(t, 20, cfg.Rules.BufferMinutes)
	// Untouched rules keep their defaults.
	assert.Equal(t, 120, cfg.Rules.FixedSlotMinutes)
	assert.Equal(t, 3, cfg.Rules.ViolationBanThreshold)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.ActiveSessionTTL())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	writeConfigFile(t, `
database:
  dsn: "postgres://localhost:5432/evcharge"
auth:
  jwtSecret: "file-secret"
rules:
  fixedSlotMinutes: 120
`)
	t.Setenv("RULES_FIXED_SLOT_MINUTES", "90")
	t.Setenv("RESERVATIONS_JWT_SECRET", "env-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Rules.FixedSlotMinutes)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestLoadRequiresDSN(t *testing.T) {
	writeConfigFile(t, `
auth:
  jwtSecret: "secret"
`)

	_, err := Load()
	assert.ErrorContains(t, err, "dsn")
}

func TestLoadRejectsBadRules(t *testing.T) {
	writeConfigFile(t, `
database:
  dsn: "postgres://localhost:5432/evcharge"
auth:
  jwtSecret: "secret"
rules:
  minGapMinutes: 180
`)

	_, err := Load()
	assert.ErrorContains(t, err, "minGapMinutes")
}

func TestRuleDurations(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, 15*time.Minute, r.Buffer())
	assert.Equal(t, 2*time.Hour, r.FixedSlot())
	assert.Equal(t, 2*time.Minute, r.PastGrace())
	assert.Equal(t, 5*time.Minute, r.BookNowWindow())
}
