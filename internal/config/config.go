package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func init() {
	// Load .env file - ignore error if file doesn't exist
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Note: .env file not found or could not be loaded: %v\n", err)
	}
}

type Config struct {
	Primary       PrimaryConfig
	Database      DatabaseConfig
	Server        ServerConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Observability *ObservabilityConfig
	Fees          FeeConfig
	Payout        PayoutConfig
	Summary       SummaryConfig
	Outbox        OutboxConfig
}

type PrimaryConfig struct {
	Env string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

// URL returns a postgres connection string for pgx and golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	IdleTimeout        int
	CORSAllowedOrigins []string
}

type RedisConfig struct {
	Address      string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
	KeyPrefix    string
}

type KafkaConfig struct {
	Brokers          []string
	FulfillmentTopic string
}

type ObservabilityConfig struct {
	ServiceName  string
	Environment  string
	Logging      LoggingConfig
	NewRelic     NewRelicConfig
	HealthChecks HealthChecksConfig
}

type LoggingConfig struct {
	Level              string
	Format             string
	SlowQueryThreshold time.Duration
}

type NewRelicConfig struct {
	LicenseKey                string
	AppLogForwardingEnabled   bool
	DistributedTracingEnabled bool
	DebugLogging              bool
}

type HealthChecksConfig struct {
	Enabled  bool
	Interval time.Duration
	Timeout  time.Duration
	Checks   []string
}

// FeeConfig is expressed the way finance teams quote it: percentages and
// currency amounts.
type FeeConfig struct {
	PlatformPercent       decimal.Decimal
	ProcessingPercent     decimal.Decimal
	ProcessingFixed       decimal.Decimal
	TransactionFee        decimal.Decimal
	MicroTransactionFloor decimal.Decimal
	WithdrawalFee         decimal.Decimal
	WithdrawalFeeWaiver   decimal.Decimal
}

type PayoutConfig struct {
	ThresholdFloor    decimal.Decimal
	DefaultMethod     string
	DefaultFrequency  string
	DefaultMinimum    decimal.Decimal
	LockTTL           time.Duration
	WorkerSchedule    string
	Location          string
	RunRateLimit      int64
	RunRateLimitEvery time.Duration
	// LedgerRefresh is the cron spec on which API processes re-read the
	// ledger written by other processes.
	LedgerRefresh string
}

// TimeLocation resolves Location, the zone payout schedule dates are cut in.
func (p PayoutConfig) TimeLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Location)
	if err != nil {
		return nil, fmt.Errorf("LEDGERLY_PAYOUT_LOCATION: %w", err)
	}
	return loc, nil
}

type OutboxConfig struct {
	BatchSize  int
	Interval   time.Duration
	MaxRetries int
}

type SummaryConfig struct {
	MonthlyTarget decimal.Decimal
}

// Helper functions for parsing env vars
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return fallback
}

// getEnvDecimal parses money and percentages. Unlike the other helpers a
// malformed value is an error rather than a fallback.
func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	value := getEnv(key, fallback)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, value, err)
	}
	return d, nil
}

func (c *ObservabilityConfig) GetLogLevel() string {
	if c.Logging.Level == "" {
		switch c.Environment {
		case "production":
			return "info"
		case "development":
			return "debug"
		default:
			return "info"
		}
	}
	return c.Logging.Level
}

func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Primary: PrimaryConfig{
			Env: getEnv("LEDGERLY_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("LEDGERLY_DB_HOST", "localhost"),
			Port:            getEnvInt("LEDGERLY_DB_PORT", 5432),
			User:            getEnv("LEDGERLY_DB_USER", "ledgerly"),
			Password:        getEnv("LEDGERLY_DB_PASSWORD", ""),
			Name:            getEnv("LEDGERLY_DB_NAME", "ledgerly"),
			SSLMode:         getEnv("LEDGERLY_DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("LEDGERLY_DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("LEDGERLY_DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvInt("LEDGERLY_DB_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("LEDGERLY_DB_CONN_MAX_IDLE_TIME", 60),
		},
		Server: ServerConfig{
			Port:               getEnv("LEDGERLY_SERVER_PORT", "8080"),
			ReadTimeout:        getEnvInt("LEDGERLY_SERVER_READ_TIMEOUT", 30),
			WriteTimeout:       getEnvInt("LEDGERLY_SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:        getEnvInt("LEDGERLY_SERVER_IDLE_TIMEOUT", 60),
			CORSAllowedOrigins: getEnvSlice("LEDGERLY_SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Address:      getEnv("LEDGERLY_REDIS_ADDRESS", "localhost:6379"),
			Password:     getEnv("LEDGERLY_REDIS_PASSWORD", ""),
			DB:           getEnvInt("LEDGERLY_REDIS_DB", 0),
			PoolSize:     getEnvInt("LEDGERLY_REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("LEDGERLY_REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvDuration("LEDGERLY_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("LEDGERLY_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("LEDGERLY_REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      getEnvDuration("LEDGERLY_REDIS_LOCK_TTL", 30*time.Second),
			KeyPrefix:    getEnv("LEDGERLY_REDIS_KEY_PREFIX", "ledgerly:"),
		},
		Kafka: KafkaConfig{
			Brokers:          getEnvSlice("LEDGERLY_KAFKA_BROKERS", []string{"localhost:9092"}),
			FulfillmentTopic: getEnv("LEDGERLY_KAFKA_FULFILLMENT_TOPIC", "marketplace.fulfillment.events"),
		},
		Observability: &ObservabilityConfig{
			ServiceName: "Ledgerly",
			Environment: getEnv("LEDGERLY_ENV", "development"),
			Logging: LoggingConfig{
				Level:              getEnv("LEDGERLY_LOG_LEVEL", "debug"),
				Format:             getEnv("LEDGERLY_LOG_FORMAT", "console"),
				SlowQueryThreshold: getEnvDuration("LEDGERLY_LOG_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			},
			NewRelic: NewRelicConfig{
				LicenseKey:                getEnv("LEDGERLY_NEWRELIC_LICENSE_KEY", ""),
				AppLogForwardingEnabled:   getEnvBool("LEDGERLY_NEWRELIC_LOG_FORWARDING", true),
				DistributedTracingEnabled: getEnvBool("LEDGERLY_NEWRELIC_DISTRIBUTED_TRACING", true),
				DebugLogging:              getEnvBool("LEDGERLY_NEWRELIC_DEBUG", false),
			},
			HealthChecks: HealthChecksConfig{
				Enabled:  getEnvBool("LEDGERLY_HEALTHCHECK_ENABLED", true),
				Interval: getEnvDuration("LEDGERLY_HEALTHCHECK_INTERVAL", 30*time.Second),
				Timeout:  getEnvDuration("LEDGERLY_HEALTHCHECK_TIMEOUT", 5*time.Second),
				Checks:   getEnvSlice("LEDGERLY_HEALTHCHECK_CHECKS", []string{"database", "redis"}),
			},
		},
		Payout: PayoutConfig{
			DefaultMethod:     getEnv("LEDGERLY_PAYOUT_DEFAULT_METHOD", "schedule"),
			DefaultFrequency:  getEnv("LEDGERLY_PAYOUT_DEFAULT_FREQUENCY", "bi-monthly"),
			LockTTL:           getEnvDuration("LEDGERLY_PAYOUT_LOCK_TTL", 30*time.Second),
			WorkerSchedule:    getEnv("LEDGERLY_PAYOUT_WORKER_SCHEDULE", "@every 15m"),
			Location:          getEnv("LEDGERLY_PAYOUT_LOCATION", "UTC"),
			RunRateLimit:      getEnvInt64("LEDGERLY_PAYOUT_RUN_RATE_LIMIT", 5),
			RunRateLimitEvery: getEnvDuration("LEDGERLY_PAYOUT_RUN_RATE_WINDOW", time.Minute),
			LedgerRefresh:     getEnv("LEDGERLY_LEDGER_REFRESH_SCHEDULE", "@every 1m"),
		},
		Outbox: OutboxConfig{
			BatchSize:  getEnvInt("LEDGERLY_OUTBOX_BATCH_SIZE", 100),
			Interval:   getEnvDuration("LEDGERLY_OUTBOX_INTERVAL", 2*time.Second),
			MaxRetries: getEnvInt("LEDGERLY_OUTBOX_MAX_RETRIES", 10),
		},
	}

	var err error
	decimals := []struct {
		dst      *decimal.Decimal
		key      string
		fallback string
	}{
		{&cfg.Fees.PlatformPercent, "LEDGERLY_FEE_PLATFORM_PERCENT", "2.5"},
		{&cfg.Fees.ProcessingPercent, "LEDGERLY_FEE_PROCESSING_PERCENT", "2.9"},
		{&cfg.Fees.ProcessingFixed, "LEDGERLY_FEE_PROCESSING_FIXED", "0.30"},
		{&cfg.Fees.TransactionFee, "LEDGERLY_FEE_TRANSACTION", "0.25"},
		{&cfg.Fees.MicroTransactionFloor, "LEDGERLY_FEE_MICRO_FLOOR", "0"},
		{&cfg.Fees.WithdrawalFee, "LEDGERLY_FEE_WITHDRAWAL", "1.00"},
		{&cfg.Fees.WithdrawalFeeWaiver, "LEDGERLY_FEE_WITHDRAWAL_WAIVER", "50"},
		{&cfg.Payout.ThresholdFloor, "LEDGERLY_PAYOUT_THRESHOLD_FLOOR", "10"},
		{&cfg.Payout.DefaultMinimum, "LEDGERLY_PAYOUT_DEFAULT_MINIMUM", "50"},
		{&cfg.Summary.MonthlyTarget, "LEDGERLY_SUMMARY_MONTHLY_TARGET", "0"},
	}
	for _, d := range decimals {
		if *d.dst, err = getEnvDecimal(d.key, d.fallback); err != nil {
			return nil, err
		}
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, fmt.Errorf("LEDGERLY_DB_HOST is required")
	}
	if cfg.Database.Name == "" {
		return nil, fmt.Errorf("LEDGERLY_DB_NAME is required")
	}
	if _, err := cfg.Payout.TimeLocation(); err != nil {
		return nil, err
	}

	return cfg, nil
}
