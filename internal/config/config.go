package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	ServiceName    = "tailorshop-api"
	ServiceVersion = "0.1.0"
)

// OTLP export settings
const (
	LogsPath      = "/otlp/v1/logs"
	TracesPath    = "/otlp/v1/traces"
	ExportTimeout = 30 * time.Second
	MaxQueueSize  = 2048
)

const devJWTSecret = "default_super_secret_key"

type Config struct {
	Port               string
	GinMode            string
	CORSAllowedOrigins []string

	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int

	TxStartWait     time.Duration
	TxTimeout       time.Duration
	TxMaxConcurrent int64

	KafkaBrokers    []string
	KafkaOrderTopic string
	EventBufferSize int

	OtelEndpoint   string
	OtelAuthHeader string
	LogLevel       string

	JWTSecret []byte
}

// DSN is the postgres connection URL
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) Release() bool {
	return c.GinMode == "release"
}

// Load reads configs/.env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return FromEnv()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("TX_START_WAIT", 2*time.Second)
	v.SetDefault("TX_TIMEOUT", 10*time.Second)
	v.SetDefault("TX_MAX_CONCURRENT", 16)
	v.SetDefault("KAFKA_ORDER_TOPIC", "tailorshop.orders")
	v.SetDefault("EVENT_BUFFER_SIZE", 256)
	v.SetDefault("LOG_LEVEL", "info")

	_ = v.BindEnv("KAFKA_BROKERS")
	_ = v.BindEnv("OTEL_ENDPOINT")
	_ = v.BindEnv("OTEL_AUTH_HEADER")
	_ = v.BindEnv("JWT_SECRET")
	return v
}

// FromEnv builds the configuration from environment variables only.
func FromEnv() (*Config, error) {
	v := newViper()
	var errs []error

	cfg := &Config{
		Port:               str(v, "PORT"),
		GinMode:            str(v, "GIN_MODE"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DBHost:             str(v, "DB_HOST"),
		DBPort:             str(v, "DB_PORT"),
		DBUser:             str(v, "DB_USER"),
		DBPassword:         v.GetString("DB_PASSWORD"),
		DBName:             str(v, "DB_NAME"),
		DBSSLMode:          str(v, "DB_SSLMODE"),
		KafkaBrokers:       splitList(v.GetString("KAFKA_BROKERS")),
		KafkaOrderTopic:    str(v, "KAFKA_ORDER_TOPIC"),
		OtelEndpoint:       str(v, "OTEL_ENDPOINT"),
		OtelAuthHeader:     v.GetString("OTEL_AUTH_HEADER"),
		LogLevel:           str(v, "LOG_LEVEL"),
	}

	cfg.DBMaxOpenConns = intKey(v, "DB_MAX_OPEN_CONNS", &errs)
	cfg.DBMaxIdleConns = intKey(v, "DB_MAX_IDLE_CONNS", &errs)
	cfg.TxMaxConcurrent = int64(intKey(v, "TX_MAX_CONCURRENT", &errs))
	cfg.EventBufferSize = intKey(v, "EVENT_BUFFER_SIZE", &errs)
	cfg.TxStartWait = durationKey(v, "TX_START_WAIT", &errs)
	cfg.TxTimeout = durationKey(v, "TX_TIMEOUT", &errs)

	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		if cfg.Release() {
			errs = append(errs, errors.New("JWT_SECRET environment variable is required in release mode"))
		}
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	if cfg.TxMaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("TX_MAX_CONCURRENT must be positive, got %d", cfg.TxMaxConcurrent))
	}
	if cfg.EventBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("EVENT_BUFFER_SIZE must be positive, got %d", cfg.EventBufferSize))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// intKey is GetInt without the silent zero on malformed input
func intKey(v *viper.Viper, key string, errs *[]error) int {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return n
}

func durationKey(v *viper.Viper, key string, errs *[]error) time.Duration {
	raw := v.Get(key)
	if s, ok := raw.(string); ok {
		raw = strings.TrimSpace(s)
	}
	d, err := cast.ToDurationE(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}
