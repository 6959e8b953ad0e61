package config

import "time"

// Config is the server configuration, usually loaded from YAML.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auction AuctionConfig `yaml:"auction"`
	Storage StorageConfig `yaml:"storage"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
	Seed    SeedConfig    `yaml:"seed"`
}

type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RateLimit is the minimum gap between two bids from the same caller.
	RateLimit time.Duration `yaml:"rate_limit"`
}

type AuctionConfig struct {
	CountdownSeconds int           `yaml:"countdown_seconds"`
	Increment        int64         `yaml:"increment"`
	MinOpeningBid    int64         `yaml:"min_opening_bid"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	OpTimeout        time.Duration `yaml:"op_timeout"`
	QueueSize        int           `yaml:"queue_size"`
	DefaultBudget    int64         `yaml:"default_budget"`
	DedupSize        int           `yaml:"dedup_size"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverRedis    = "redis"
)

type StorageConfig struct {
	Driver   string      `yaml:"driver"`
	Postgres DBConfig    `yaml:"postgres"`
	Mongo    MongoConfig `yaml:"mongo"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type CacheConfig struct {
	Driver   string        `yaml:"driver"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SeedConfig struct {
	// Enabled loads the demo teams and players into empty stores on start.
	Enabled bool `yaml:"enabled"`
}
