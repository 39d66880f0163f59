package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/diabetes-tracker/internal/logger"
)

// Storage drivers accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	HTTP          HTTPConfig
	DB            DBConfig
	Redis         RedisConfig
	Estimator     EstimatorConfig
	Logger        LoggerConfig
	TelegramToken string
	// DefaultUserID is the tenant assumed when a caller sends no userId.
	DefaultUserID    string
	AuditTimeout     time.Duration
	AnalysisCacheTTL time.Duration
}

type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// DSN returns the postgres connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type EstimatorConfig struct {
	ClampToPhysiologicalRange bool
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

type parser struct {
	errs []error
}

func (p *parser) duration(key, def string) time.Duration {
	raw := getEnvOrDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return 0
	}
	return d
}

func (p *parser) boolean(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return def
	}
	return b
}

func Load() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr:         getEnvOrDefault("HTTP_ADDR", ":5001"),
			ReadTimeout:  p.duration("HTTP_READ_TIMEOUT", "15s"),
			WriteTimeout: p.duration("HTTP_WRITE_TIMEOUT", "15s"),
		},
		DB: DBConfig{
			Driver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverPostgres)),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:     getEnvOrDefault("DB_NAME", "diabetes_tracker"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "data/tracker.db"),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Estimator: EstimatorConfig{
			ClampToPhysiologicalRange: p.boolean("GLUCOSE_CLAMP_RANGE", false),
		},
		Logger: LoggerConfig{
			Level:      logger.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "stdout"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DefaultUserID:    getEnvOrDefault("DEFAULT_USER_ID", "default"),
		AuditTimeout:     p.duration("AUDIT_TIMEOUT", "5s"),
		AnalysisCacheTTL: p.duration("ANALYSIS_CACHE_TTL", "1m"),
	}

	switch cfg.DB.Driver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		p.errs = append(p.errs, fmt.Errorf("DB_DRIVER: unknown driver %q", cfg.DB.Driver))
	}
	if f := cfg.Logger.Format; f != "json" && f != "text" {
		p.errs = append(p.errs, fmt.Errorf("LOG_FORMAT: must be json or text, got %q", f))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options converts to the logger package's configuration.
func (c LoggerConfig) Options() logger.Config {
	return logger.Config{
		Level:      c.Level,
		OutputPath: c.OutputPath,
		Format:     c.Format,
	}
}
