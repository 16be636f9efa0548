package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrTestDatabaseNotConfigured is returned by LoadTestConfig when TEST_DB_HOST is unset
var ErrTestDatabaseNotConfigured = errors.New("TEST_DB_HOST is not set")

// LoadTestConfig reads the TEST_DB_* variables used by integration tests.
// Port, user and database name fall back to local defaults.
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("./../../.env")
	_ = godotenv.Load()

	cfg := &Config{Env: "test"}

	cfg.Database.Host = os.Getenv("TEST_DB_HOST")
	if cfg.Database.Host == "" {
		return nil, ErrTestDatabaseNotConfigured
	}

	port, err := intOrDefault("TEST_DB_PORT", 3306)
	if err != nil {
		return nil, err
	}
	cfg.Database.Port = port
	cfg.Database.User = stringOrDefault("TEST_DB_USER", "root")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = stringOrDefault("TEST_DB_NAME", "storefront_test")

	if cfg.Database.Port <= 0 {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %d", cfg.Database.Port)
	}

	return cfg, nil
}
