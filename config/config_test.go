package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
postgres:
  dsn: postgres://file/db
booking:
  expiration: 2m
  throttling_users: 4
blog:
  feeds:
    splash: https://blog.example.org/feed
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://file/db", cfg.Postgres.DSN)
	assert.Equal(t, 2*time.Minute, cfg.Booking.Expiration)
	assert.Equal(t, 4, cfg.Booking.ThrottlingUsers)
	assert.Equal(t, 24*time.Hour, cfg.Booking.ThrottlingTimedelta, "untouched fields keep defaults")
	assert.Equal(t, "ignite-challenge", cfg.Challenge.Slug)
	assert.Equal(t, 3, cfg.Blog.EntriesPerFeed)
	assert.Equal(t, "https://blog.example.org/feed", cfg.Blog.Feeds["splash"])
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "postgres:\n  dsn: postgres://file/db\n")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("BOOKING_THROTTLING_TIMEDELTA", "1h")
	t.Setenv("JUDGES_PER_SUBMISSION", "3")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.Postgres.DSN)
	assert.Equal(t, time.Hour, cfg.Booking.ThrottlingTimedelta)
	assert.Equal(t, 3, cfg.Judging.JudgesPerSubmission)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadConfig_FallsBackToEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("BOOKING_THROTTLING", "false")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", cfg.Postgres.DSN)
	assert.False(t, cfg.Booking.ThrottlingEnabled)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("no dsn anywhere", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		path := writeConfig(t, "postgres:\n  dsn: x\n")
		t.Setenv("BOOKING_EXPIRATION", "soon")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "BOOKING_EXPIRATION")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeConfig(t, "postgres: [")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "failed to unmarshal config")
	})
}
