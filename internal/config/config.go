// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the vault ledger service
type Config struct {
	GRPCPort           string        `mapstructure:"GRPC_PORT"`
	HTTPPort           string        `mapstructure:"HTTP_PORT"`
	Store              string        `mapstructure:"STORE"`
	DBConnStr          string        `mapstructure:"DB_CONN_STR"`
	DBHost             string        `mapstructure:"DB_HOST"`
	DBPort             string        `mapstructure:"DB_PORT"`
	DBUser             string        `mapstructure:"DB_USER"`
	DBPassword         string        `mapstructure:"DB_PASSWORD"`
	DBName             string        `mapstructure:"DB_NAME"`
	DBStatementTimeout time.Duration `mapstructure:"DB_STATEMENT_TIMEOUT"`
	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	RedisURL           string        `mapstructure:"REDIS_URL"`
	IncentiveCooldown  time.Duration `mapstructure:"INCENTIVE_COOLDOWN"`
	RabbitMQURL        string        `mapstructure:"RABBITMQ_URL"`
	EventsExchange     string        `mapstructure:"EVENTS_EXCHANGE"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var envKeys = []string{
	"GRPC_PORT",
	"HTTP_PORT",
	"STORE",
	"DB_CONN_STR",
	"DB_HOST",
	"DB_PORT",
	"DB_USER",
	"DB_PASSWORD",
	"DB_NAME",
	"DB_STATEMENT_TIMEOUT",
	"JWT_SECRET",
	"REDIS_URL",
	"INCENTIVE_COOLDOWN",
	"RABBITMQ_URL",
	"EVENTS_EXCHANGE",
	"CORS_ALLOWED_ORIGINS",
}

// LoadConfig reads configuration from environment variables and an optional
// .env file in path. Environment variables win over the file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("GRPC_PORT", "8080")
	v.SetDefault("HTTP_PORT", "8081")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "wealthnest")
	v.SetDefault("DB_STATEMENT_TIMEOUT", "5s")
	v.SetDefault("INCENTIVE_COOLDOWN", "24h")
	v.SetDefault("EVENTS_EXCHANGE", "vault_events")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warn("failed to read config file, using environment values", logger.Fields{"error": err.Error()})
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	cfg.RabbitMQURL = strings.TrimSpace(cfg.RabbitMQURL)
	cfg.CORSAllowedOrigins = splitOrigins(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the service cannot start with
func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("invalid STORE %q: must be %s or %s", c.Store, StorePostgres, StoreMemory)
	}

	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.IncentiveCooldown < 0 {
		return errors.New("INCENTIVE_COOLDOWN cannot be negative")
	}

	return nil
}

// DatabaseDSN returns DB_CONN_STR, or builds a lib/pq DSN from the individual DB_* settings
func (c Config) DatabaseDSN() string {
	dsn := strings.TrimSpace(c.DBConnStr)
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	}
	if c.DBStatementTimeout > 0 && !strings.Contains(dsn, "statement_timeout") && !strings.Contains(dsn, "://") {
		dsn = fmt.Sprintf("%s statement_timeout=%d", dsn, c.DBStatementTimeout.Milliseconds())
	}
	return dsn
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
