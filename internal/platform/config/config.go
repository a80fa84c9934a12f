// Package config builds process configuration from environment variables so
// main stays lean. Every knob has a development default; production overrides
// them through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	stringsutil "landgrid/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// PostgresConfig points at the backing database. An empty URL selects the
// in-memory stores.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig points at the rate-limit bucket store. An empty URL disables
// Redis and falls back to in-process buckets.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig points at the audit event stream. No brokers means no stream
// sink; events still reach the database store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// GridConfig fixes the world geometry and metadata addressing.
type GridConfig struct {
	Width   uint
	BaseURI string
}

// EconomyConfig seeds the treasurer-mutable ledger parameters on first boot.
// Percentages are parts per 100000.
type EconomyConfig struct {
	UnclaimedPlotPrice       uint64
	ClaimDividendPercentage  uint64
	BuyoutDividendPercentage uint64
	BuyoutFeePercentage      uint64
	BuyoutLockout            time.Duration
}

// AccessConfig seeds the administrator and treasurer accounts on first boot.
type AccessConfig struct {
	Administrator string
	Treasurer     string
}

// AuctionConfig configures the auction escrow operator and its cut.
type AuctionConfig struct {
	Operator      string
	FeePercentage uint64
}

// RateLimitConfig bounds per-caller read rates. Write and admin budgets are
// fixed fractions of the defaults, see internal/ratelimit/models.
type RateLimitConfig struct {
	RequestsPerMinute int
}

// Config is the full process configuration.
type Config struct {
	Server    Server
	Postgres  PostgresConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Grid      GridConfig
	Economy   EconomyConfig
	Access    AccessConfig
	Auction   AuctionConfig
	RateLimit RateLimitConfig
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("LANDGRID_ADDR", ":8080"),
			ShutdownTimeout: envDuration("LANDGRID_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("LANDGRID_POSTGRES_URL"),
			MaxOpenConns:    envInt("LANDGRID_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("LANDGRID_POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("LANDGRID_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("LANDGRID_REDIS_URL"),
			PoolSize:     envInt("LANDGRID_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("LANDGRID_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("LANDGRID_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("LANDGRID_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("LANDGRID_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envStrings("LANDGRID_KAFKA_BROKERS"),
			Topic:   envString("LANDGRID_KAFKA_AUDIT_TOPIC", "landgrid.audit.events"),
		},
		JWT: JWTConfig{
			// Development default, must be overridden in production.
			SigningKey: envString("LANDGRID_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envString("LANDGRID_JWT_ISSUER", "landgrid"),
			Audience:   envString("LANDGRID_JWT_AUDIENCE", "landgrid-api"),
		},
		Grid: GridConfig{
			Width:   uint(envInt("LANDGRID_GRID_WIDTH", 65536)),
			BaseURI: envString("LANDGRID_METADATA_BASE_URI", "https://landgrid.example/plots"),
		},
		Economy: EconomyConfig{
			UnclaimedPlotPrice:       envUint("LANDGRID_UNCLAIMED_PLOT_PRICE", 100000),
			ClaimDividendPercentage:  envUint("LANDGRID_CLAIM_DIVIDEND_PCT", 3500),
			BuyoutDividendPercentage: envUint("LANDGRID_BUYOUT_DIVIDEND_PCT", 5000),
			BuyoutFeePercentage:      envUint("LANDGRID_BUYOUT_FEE_PCT", 3500),
			BuyoutLockout:            envDuration("LANDGRID_BUYOUT_LOCKOUT", 0),
		},
		Access: AccessConfig{
			Administrator: os.Getenv("LANDGRID_ADMIN_ACCOUNT"),
			Treasurer:     os.Getenv("LANDGRID_TREASURER_ACCOUNT"),
		},
		Auction: AuctionConfig{
			Operator:      os.Getenv("LANDGRID_AUCTION_OPERATOR"),
			FeePercentage: envUint("LANDGRID_AUCTION_FEE_PCT", 3500),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: envInt("LANDGRID_RATE_LIMIT_RPM", 600),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envUint(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envStrings(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := stringsutil.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
