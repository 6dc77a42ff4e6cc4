package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"hse-portal/internal/storage"
)

// Config holds all configuration for the application.
type Config struct {
	Port       string
	DataDir    string
	UploadsDir string

	StoreBackend string
	DBPath       string
	StoreStrict  bool

	MaxBodyBytes int64
	LogLevel     slog.Level
	LogFormat    string

	AdminUsername string
	AdminPassword string

	TrainingDeleteLenient bool
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", getEnv("API_PORT", "8000")),
		DataDir:       getEnv("DATA_DIR", "./data"),
		UploadsDir:    getEnv("UPLOADS_DIR", "./uploads"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", storage.BackendFile)),
		LogFormat:     strings.ToLower(getEnv("LOG_FORMAT", "text")),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be a valid port number, got %q", cfg.Port)
	}

	switch cfg.StoreBackend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendBolt:
		cfg.DBPath = getEnv("DB_PATH", DefaultDBPath(cfg.StoreBackend, cfg.DataDir))
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of file, sqlite, bolt, got %q", cfg.StoreBackend)
	}

	if cfg.StoreStrict, err = parseBool("STORE_STRICT", true); err != nil {
		return nil, err
	}
	if cfg.TrainingDeleteLenient, err = parseBool("TRAINING_DELETE_LENIENT", false); err != nil {
		return nil, err
	}

	maxBody := getEnv("MAX_BODY_BYTES", strconv.Itoa(10<<20))
	cfg.MaxBodyBytes, err = strconv.ParseInt(maxBody, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be a valid integer: %w", err)
	}
	if cfg.MaxBodyBytes < 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES cannot be negative")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if cfg.DBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return cfg, nil
}

// DefaultDBPath returns the database file used by backend when DB_PATH is
// unset. The file backend keeps one file per document and has none.
func DefaultDBPath(backend, dataDir string) string {
	switch strings.ToLower(backend) {
	case storage.BackendSQLite:
		return filepath.Join(dataDir, "hse.db")
	case storage.BackendBolt:
		return filepath.Join(dataDir, "hse.bolt")
	default:
		return ""
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return v, nil
}
