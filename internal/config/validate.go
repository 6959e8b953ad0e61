package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required")
	}
	if c.Server.ShutdownTimeout < 0 {
		return errors.New("server.shutdown_timeout must be >= 0")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must be >= 0")
	}

	if c.Auction.CountdownSeconds < 1 {
		return fmt.Errorf("auction.countdown_seconds must be >= 1, got %d", c.Auction.CountdownSeconds)
	}
	if c.Auction.Increment < 1 {
		return fmt.Errorf("auction.increment must be >= 1, got %d", c.Auction.Increment)
	}
	if c.Auction.MinOpeningBid < 0 {
		return errors.New("auction.min_opening_bid must be >= 0")
	}
	if c.Auction.TickInterval <= 0 {
		return errors.New("auction.tick_interval must be > 0")
	}
	if c.Auction.DefaultBudget < 0 {
		return errors.New("auction.default_budget must be >= 0")
	}
	if c.Auction.DedupSize < 1 {
		return errors.New("auction.dedup_size must be >= 1")
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	case DriverMongo:
		if c.Storage.Mongo.URI == "" {
			return errors.New("storage.mongo.uri is required")
		}
	default:
		return fmt.Errorf("storage.driver must be one of memory, postgres, mongo, got %q", c.Storage.Driver)
	}

	switch c.Cache.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Cache.Addr == "" {
			return errors.New("cache.addr is required")
		}
		if c.Cache.TTL < 0 {
			return errors.New("cache.ttl must be >= 0")
		}
	default:
		return fmt.Errorf("cache.driver must be one of memory, redis, got %q", c.Cache.Driver)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be between 1 and 65535, got %d", prefix, db.Port)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	return nil
}

// ConnString builds a postgres URL from db.
func (db DBConfig) ConnString() string {
	sslMode := db.SSLMode
	if sslMode == "" {
		sslMode = DefaultDBSSLMode
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User, url.QueryEscape(db.Password), db.Host, db.Port, db.Name, sslMode)
}
