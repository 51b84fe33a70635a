package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds signaling-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSMaxMessageSize  int64

	// Transcript rate limiting (per connection)
	TranscriptLimit      int           // events per window
	TranscriptWindow     time.Duration // window length
	RateLimiterIdleAge   time.Duration // evict per-connection windows idle this long
	RateLimiterSweepSpec string        // cron spec for the eviction sweep

	// Credit metering
	MeterTickInterval   time.Duration // debit cadence while translation is active
	LowBalanceThreshold int

	// Room lifecycle
	RoomCleanupAge  time.Duration // deactivate rooms inactive this long
	RoomCleanupSpec string        // cron spec for the cleanup sweep

	// Translation providers
	GoogleTranslateAPIKey  string
	GoogleTranslateURL     string
	GoogleTranslateTimeout time.Duration
	LibreTranslateURL      string
	LibreTranslateTimeout  time.Duration
	GtxTranslateURL        string
	GtxTranslateTimeout    time.Duration

	// Public base URL for room links returned by the REST API
	PublicBaseURL string
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	maxMsg, _ := strconv.ParseInt(getEnv("WS_MAX_MESSAGE_SIZE", "65536"), 10, 64)
	limit, _ := strconv.Atoi(getEnv("TRANSCRIPT_RATE_LIMIT", "20"))
	lowBal, _ := strconv.Atoi(getEnv("LOW_BALANCE_THRESHOLD", "10"))

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		AppHost:              getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:             firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		WSReadBufferSize:     readBuf,
		WSWriteBufferSize:    writeBuf,
		WSMaxMessageSize:     maxMsg,
		TranscriptLimit:      limit,
		TranscriptWindow:     getDuration("TRANSCRIPT_RATE_WINDOW", time.Minute),
		RateLimiterIdleAge:   getDuration("RATE_LIMITER_IDLE_AGE", 5*time.Minute),
		RateLimiterSweepSpec: getEnv("RATE_LIMITER_SWEEP_SPEC", "@every 5m"),
		MeterTickInterval:    getDuration("METER_TICK_INTERVAL", time.Minute),
		LowBalanceThreshold:  lowBal,
		RoomCleanupAge:       getDuration("ROOM_CLEANUP_AGE", 24*time.Hour),
		RoomCleanupSpec:      getEnv("ROOM_CLEANUP_SPEC", "@every 1h"),

		GoogleTranslateAPIKey:  getEnv("GOOGLE_TRANSLATE_API_KEY", ""),
		GoogleTranslateURL:     getEnv("GOOGLE_TRANSLATE_URL", "https://translation.googleapis.com/language/translate/v2"),
		GoogleTranslateTimeout: getDuration("GOOGLE_TRANSLATE_TIMEOUT", 5*time.Second),
		LibreTranslateURL:      getEnv("LIBRE_TRANSLATE_URL", "https://libretranslate.com/translate"),
		LibreTranslateTimeout:  getDuration("LIBRE_TRANSLATE_TIMEOUT", 10*time.Second),
		GtxTranslateURL:        getEnv("GTX_TRANSLATE_URL", "https://translate.googleapis.com/translate_a/single"),
		GtxTranslateTimeout:    getDuration("GTX_TRANSLATE_TIMEOUT", 5*time.Second),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "signaling_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.TranscriptLimit <= 0 {
		return errors.New("config: TRANSCRIPT_RATE_LIMIT must be positive")
	}
	if c.TranscriptWindow <= 0 {
		return errors.New("config: TRANSCRIPT_RATE_WINDOW must be positive")
	}
	if c.MeterTickInterval <= 0 {
		return errors.New("config: METER_TICK_INTERVAL must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns a postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
