package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempFile(t, `
server:
  http_addr: ":8081"
  rate_limit: 250ms
auction:
  countdown_seconds: 15
  increment: 2
  tick_interval: 500ms
storage:
  driver: postgres
  postgres:
    host: localhost
    name: auction
    user: auction
    password: secret
`)
	cfg, err := Load(path)
	assert.NoError(t, err)

	check.Equal(t, ":8081", cfg.Server.HTTPAddr)
	check.Equal(t, 250*time.Millisecond, cfg.Server.RateLimit)
	check.Equal(t, 15, cfg.Auction.CountdownSeconds)
	check.Equal(t, int64(2), cfg.Auction.Increment)
	check.Equal(t, 500*time.Millisecond, cfg.Auction.TickInterval)
	check.Equal(t, DriverPostgres, cfg.Storage.Driver)
	// Load applies no defaults
	check.Equal(t, 0, cfg.Storage.Postgres.Port)
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "p@ss word")
	path := writeTempFile(t, `
storage:
  driver: postgres
  postgres:
    host: db
    name: auction
    user: auction
    password: ${TEST_DB_PASSWORD}
`)
	cfg, err := LoadAndValidate(path)
	assert.NoError(t, err)
	check.Equal(t, "p@ss word", cfg.Storage.Postgres.Password)
	check.Equal(t, "postgres://auction:p%40ss+word@db:5432/auction?sslmode=prefer", cfg.Storage.Postgres.ConnString())
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults("")
	assert.NoError(t, err)

	check.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	check.Equal(t, DefaultCountdownSeconds, cfg.Auction.CountdownSeconds)
	check.Equal(t, int64(DefaultIncrement), cfg.Auction.Increment)
	check.Equal(t, DefaultTickInterval, cfg.Auction.TickInterval)
	check.Equal(t, DriverMemory, cfg.Storage.Driver)
	check.Equal(t, DriverMemory, cfg.Cache.Driver)
	check.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	check.Error(t, err)
}

func TestLoadEnvIgnoresMissingFile(t *testing.T) {
	check.NoError(t, LoadEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, os.WriteFile(path, []byte("AUCTION_TEST_VAR=from-dotenv\n"), 0o644))
	t.Setenv("AUCTION_TEST_VAR", "")
	os.Unsetenv("AUCTION_TEST_VAR")

	assert.NoError(t, LoadEnv(path))
	check.Equal(t, "from-dotenv", os.Getenv("AUCTION_TEST_VAR"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero countdown", func(c *Config) { c.Auction.CountdownSeconds = -1 }},
		{"zero increment", func(c *Config) { c.Auction.Increment = -1 }},
		{"unknown storage", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"postgres without host", func(c *Config) { c.Storage.Driver = DriverPostgres }},
		{"mongo without uri", func(c *Config) { c.Storage.Driver = DriverMongo }},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadWithDefaults("")
			assert.NoError(t, err)
			tt.modify(cfg)
			check.Error(t, cfg.Validate())
		})
	}
}
