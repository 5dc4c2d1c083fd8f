// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	MailAPIAddress string `env:"MAIL_API_ADDRESS"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"noreply@shopnest.local"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpire time.Duration `env:"JWT_EXPIRE" envDefault:"120h"`

	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"15m"`
	ResetCleanupInterval time.Duration `env:"RESET_CLEANUP_INTERVAL" envDefault:"1m"`

	// StockMode: sequential или two-phase.
	StockMode string `env:"STOCK_MODE" envDefault:"sequential"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Parse считывает конфигурацию из env-файла, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envMailAddress := cfg.MailAPIAddress

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI, empty selects the in-memory store")
	flag.StringVar(&cfg.MailAPIAddress, "m", "", "mail relay address")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envMailAddress != "" {
		cfg.MailAPIAddress = envMailAddress
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	switch cfg.StockMode {
	case "sequential", "two-phase":
	default:
		return nil, fmt.Errorf("invalid STOCK_MODE %q: want sequential or two-phase", cfg.StockMode)
	}

	if cfg.ResetTokenTTL <= 0 || cfg.ResetCleanupInterval <= 0 || cfg.JWTExpire <= 0 {
		return nil, errors.New("JWT_EXPIRE, RESET_TOKEN_TTL and RESET_CLEANUP_INTERVAL must be positive")
	}

	return cfg, nil
}

// loadEnvFile загружает ENV_FILE, а без него .env, если он есть.
// Уже заданные переменные окружения не перезаписываются.
func loadEnvFile() error {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}

	if _, err := os.Stat(defaultEnvFile); err != nil {
		return nil
	}
	if err := godotenv.Load(defaultEnvFile); err != nil {
		return fmt.Errorf("load env file %s: %w", defaultEnvFile, err)
	}
	return nil
}
