package config

import (
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Configuration struct {
	Server   ServerConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port         string        `env:"PORT"`
	Environment  string        `env:"NODE_ENV"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT"`
}

type SecurityConfig struct {
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionTTL        time.Duration `env:"SESSION_TTL"`
	PasswordMinLength int           `env:"PASSWORD_MIN_LENGTH"`
	BcryptCost        int           `env:"BCRYPT_COST"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL"`
}

type DatabaseConfig struct {
	Host            string `env:"DB_HOST"`
	Port            string `env:"DB_PORT"`
	Username        string `env:"DB_USER"`
	Password        string `env:"DB_PASSWORD"`
	Name            string `env:"DB_NAME"`
	SSLMode         string `env:"DB_SSLMODE"`
	MaxIdleConns    int    `env:"DB_MAX_IDLE_CONNS"`
	MaxOpenConns    int    `env:"DB_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"DB_CONN_MAX_LIFETIME"`
}

// Load builds the configuration from coded defaults, an optional .env file,
// and environment variable overrides, in that order.
func Load() (*Configuration, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Configuration {
	return &Configuration{
		Server: ServerConfig{
			Port:         "8000",
			Environment:  "development",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Security: SecurityConfig{
			SessionSecret:     "langcentrix-session-secret",
			SessionTTL:        7 * 24 * time.Hour,
			PasswordMinLength: 8,
			BcryptCost:        10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			Username:        "postgres",
			Password:        "password",
			Name:            "langcentrix",
			SSLMode:         "disable",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: 300,
		},
	}
}

func LogConfig(cfg *Configuration, logger *zap.Logger) {
	logger.Info("Application configuration",
		zap.String("port", cfg.Server.Port),
		zap.String("environment", cfg.Server.Environment),
		zap.Duration("read_timeout", cfg.Server.ReadTimeout),
		zap.Duration("write_timeout", cfg.Server.WriteTimeout),
		zap.Duration("session_ttl", cfg.Security.SessionTTL),
		zap.String("database_host", cfg.Database.Host),
		zap.String("database_name", cfg.Database.Name),
		zap.String("session_secret", "[REDACTED]"),
		zap.String("database_password", "[REDACTED]"),
	)
}
