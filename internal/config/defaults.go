package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHTTPAddr         = ":8080"
	DefaultGRPCAddr         = ":9090"
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultRateLimit        = 100 * time.Millisecond
	DefaultCountdownSeconds = 20
	DefaultIncrement        = 1
	DefaultMinOpeningBid    = 1
	DefaultTickInterval     = time.Second
	DefaultOpTimeout        = 10 * time.Second
	DefaultQueueSize        = 64
	DefaultBudget           = 100
	DefaultDedupSize        = 1024
	DefaultSubscriberBuffer = 64
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMongoDatabase    = "auction"
	DefaultRedisAddr        = "localhost:6379"
	DefaultCacheTTL         = 24 * time.Hour
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = DefaultHTTPAddr
	}
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = DefaultGRPCAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = DefaultRateLimit
	}

	// Auction defaults
	if c.Auction.CountdownSeconds == 0 {
		c.Auction.CountdownSeconds = DefaultCountdownSeconds
	}
	if c.Auction.Increment == 0 {
		c.Auction.Increment = DefaultIncrement
	}
	if c.Auction.MinOpeningBid == 0 {
		c.Auction.MinOpeningBid = DefaultMinOpeningBid
	}
	if c.Auction.TickInterval == 0 {
		c.Auction.TickInterval = DefaultTickInterval
	}
	if c.Auction.OpTimeout == 0 {
		c.Auction.OpTimeout = DefaultOpTimeout
	}
	if c.Auction.QueueSize == 0 {
		c.Auction.QueueSize = DefaultQueueSize
	}
	if c.Auction.DefaultBudget == 0 {
		c.Auction.DefaultBudget = DefaultBudget
	}
	if c.Auction.DedupSize == 0 {
		c.Auction.DedupSize = DefaultDedupSize
	}
	if c.Auction.SubscriberBuffer == 0 {
		c.Auction.SubscriberBuffer = DefaultSubscriberBuffer
	}

	// Storage defaults
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
	}
	if c.Storage.Postgres.Port == 0 {
		c.Storage.Postgres.Port = DefaultDBPort
	}
	if c.Storage.Postgres.SSLMode == "" {
		c.Storage.Postgres.SSLMode = DefaultDBSSLMode
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = DefaultMaxConns
	}
	if c.Storage.Mongo.Database == "" {
		c.Storage.Mongo.Database = DefaultMongoDatabase
	}

	// Cache defaults
	if c.Cache.Driver == "" {
		c.Cache.Driver = DriverMemory
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = DefaultRedisAddr
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}
