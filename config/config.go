// Package config loads the process configuration from the environment
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment flavour
type Environment string

const (
	EnvDevelopment Environment = "dev"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "prod"
	EnvTest        Environment = "test"
)

// Store backends
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string
	LogDir            string
	LogRetentionWeeks int
	MaxLogFileSize    int64
	MaxRequestBody    int64
	MaxHeaderSize     int64

	DataDir      string
	StoreBackend string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	IdleTimeout time.Duration
	IdleWarning time.Duration

	ExportDir  string
	BcryptCost int
}

// Load reads and validates the configuration
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 100*1024*1024),
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1024*1024),
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1024*1024),
		DataDir:           getEnvWithDefault("DATA_DIR", "data"),
		StoreBackend:      strings.ToLower(getEnvWithDefault("STORE_BACKEND", BackendFile)),
		RedisAddr:         getEnvWithDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getIntEnvWithDefault("REDIS_DB", 0),
		RedisKeyPrefix:    getEnvWithDefault("REDIS_KEY_PREFIX", "medsummary:"),
		ExportDir:         getEnvWithDefault("EXPORT_DIR", "exports"),
		BcryptCost:        getIntEnvWithDefault("BCRYPT_COST", 10),
	}

	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid ENV: %w", err))
	}
	cfg.Env = env

	if cfg.IdleTimeout, err = getDurationEnvWithDefault("IDLE_TIMEOUT", 28*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err))
	}
	if cfg.IdleWarning, err = getDurationEnvWithDefault("IDLE_WARNING", 30*time.Second); err != nil {
		errs = append(errs, fmt.Errorf("invalid IDLE_WARNING: %w", err))
	}

	if err := errors.Join(append(errs, validateConfig(cfg))...); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// ParseEnvironment accepts dev, staging, prod or test in any case
func ParseEnvironment(s string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(s))); env {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
		return env, nil
	default:
		return EnvDevelopment, fmt.Errorf("must be one of dev, staging, prod, test, got: %q", s)
	}
}

func (e Environment) String() string { return string(e) }

// Addr is the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Address, c.Port)
}

func validateConfig(cfg *Config) error {
	checks := []struct {
		name string
		err  error
	}{
		{"PORT", validatePort(cfg.Port)},
		{"ADDRESS", validateAddress(cfg.Address)},
		{"LOG_LEVEL", validateLogLevel(cfg.LogLevel)},
		{"MAX_REQUEST_BODY", validateSizeLimit(cfg.MaxRequestBody)},
		{"MAX_HEADER_SIZE", validateSizeLimit(cfg.MaxHeaderSize)},
		{"LOG_RETENTION_WEEKS", validateLogRetentionWeeks(cfg.LogRetentionWeeks)},
		{"MAX_LOG_FILE_SIZE", validateMaxLogFileSize(cfg.MaxLogFileSize)},
		{"STORE_BACKEND", validateBackend(cfg)},
		{"IDLE_WARNING", validateIdle(cfg.IdleTimeout, cfg.IdleWarning)},
		{"BCRYPT_COST", validateBcryptCost(cfg.BcryptCost)},
	}

	var errs []error
	for _, c := range checks {
		if c.err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", c.name, c.err))
		}
	}
	return errors.Join(errs...)
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("must be a number: %w", err)
	}
	if n < 1024 || n > 65535 {
		return fmt.Errorf("must be between 1024 and 65535, got %d", n)
	}
	return nil
}

// validateAddress only allows loopback and private addresses. The API serves
// patient data and is never meant to face the internet.
func validateAddress(address string) error {
	if address == "localhost" {
		return nil
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("must be an IP address or 'localhost', got: %s", address)
	}
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("%s is public, use a loopback or private address", address)
	}
	return nil
}

func validateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("must be one of debug, info, warn, error, got: %s", level)
}

func validateSizeLimit(size int64) error {
	if size <= 0 {
		return fmt.Errorf("must be positive, got: %d", size)
	}
	if size > 100*1024*1024 {
		return fmt.Errorf("too large (max 100MB), got: %d bytes", size)
	}
	return nil
}

func validateLogRetentionWeeks(weeks int) error {
	if weeks < 1 || weeks > 52 {
		return fmt.Errorf("must be between 1 and 52, got: %d", weeks)
	}
	return nil
}

func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 || size > 1024*1024*1024 {
		return fmt.Errorf("must be between 1MB and 1GB, got: %d bytes", size)
	}
	return nil
}

func validateBackend(cfg *Config) error {
	switch cfg.StoreBackend {
	case BackendMemory:
		return nil
	case BackendFile:
		if strings.TrimSpace(cfg.DataDir) == "" {
			return errors.New("DATA_DIR cannot be empty for the file backend")
		}
		return nil
	case BackendRedis:
		if _, _, err := net.SplitHostPort(cfg.RedisAddr); err != nil {
			return fmt.Errorf("REDIS_ADDR must be host:port: %w", err)
		}
		if cfg.RedisDB < 0 || cfg.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be between 0 and 15, got %d", cfg.RedisDB)
		}
		return nil
	}
	return fmt.Errorf("must be one of file, memory, redis, got: %s", cfg.StoreBackend)
}

func validateIdle(timeout, warning time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT must be positive, got %s", timeout)
	}
	if warning < 0 || warning >= timeout {
		return fmt.Errorf("must be between 0 and IDLE_TIMEOUT (%s), got %s", timeout, warning)
	}
	return nil
}

func validateBcryptCost(cost int) error {
	if cost < 4 || cost > 31 {
		return fmt.Errorf("must be between 4 and 31, got %d", cost)
	}
	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, err
	}
	return d, nil
}

// GetEnvVars lists every variable Load reads
func GetEnvVars() []string {
	return []string{
		"PORT", "ADDRESS", "ENV", "LOG_LEVEL", "LOG_DIR",
		"LOG_RETENTION_WEEKS", "MAX_LOG_FILE_SIZE", "MAX_REQUEST_BODY", "MAX_HEADER_SIZE",
		"DATA_DIR", "STORE_BACKEND",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY_PREFIX",
		"IDLE_TIMEOUT", "IDLE_WARNING", "EXPORT_DIR", "BCRYPT_COST",
	}
}
