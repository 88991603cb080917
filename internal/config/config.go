// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaptrailapp/chaptrail-server/internal/normalize"
	"github.com/chaptrailapp/chaptrail-server/internal/validation"
)

// Version is the server version reported by the API and logs.
const Version = "0.3.0"

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Sweep   SweepConfig
	Breaker BreakerConfig
	Scraper ScraperConfig
	Server  ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"required,oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `validate:"required,oneof=debug info warn error"`
}

// DataConfig holds persistent storage configuration.
type DataConfig struct {
	BasePath string `validate:"required"`
	// FlushInterval is how often dirty user/server state is flushed to disk (default: 5m)
	FlushInterval time.Duration
}

// SweepConfig holds sweep scheduler configuration.
type SweepConfig struct {
	// Interval between the end of one sweep and the start of the next (default: 5m)
	Interval time.Duration
	// RestartCeiling is the total runtime after which a sweep is declared hung (default: 3h)
	RestartCeiling time.Duration
	// StallWindow is the maximum time a sweep may go without progress (default: 10m)
	StallWindow time.Duration
	// InactiveOwnerAge is how long a user may be inactive before their titles are skipped (default: 720h / 30 days)
	InactiveOwnerAge time.Duration
	// UnreadCeiling suspends unread delivery for a user past this queue size (default: 5000)
	UnreadCeiling int `validate:"gt=0"`
}

// BreakerConfig holds origin circuit breaker configuration.
type BreakerConfig struct {
	// TimeoutThreshold is how many consecutive timeouts trip an origin (default: 5)
	TimeoutThreshold int `validate:"gt=0"`
	// TimeoutOverrides raises the threshold for named origins, "origin=count" comma-separated
	TimeoutOverrides map[string]int
	// ResetInterval clears all tripped origins and strike counts (default: 6h)
	ResetInterval time.Duration
}

// ScraperConfig holds chapter scraping configuration.
type ScraperConfig struct {
	// Timeout is the per-page fetch budget (default: 45s)
	Timeout time.Duration
	// RequestsPerSecond caps fetches against a single origin (default: 1)
	RequestsPerSecond float64 `validate:"gt=0"`
	UserAgent         string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// Port is the listen port (default: 8080)
	Port string `validate:"required"`
	// ReadTimeout is the HTTP read timeout (default: 15s)
	ReadTimeout time.Duration
	// WriteTimeout is the HTTP write timeout (default: 15s)
	WriteTimeout time.Duration
	// IdleTimeout is the HTTP idle timeout (default: 60s)
	IdleTimeout time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for persistent storage")
	flushInterval := flag.String("flush-interval", "", "Dirty-state flush interval (default: 5m)")

	// Sweep flags
	sweepInterval := flag.String("sweep-interval", "", "Delay between sweeps (default: 5m)")
	restartCeiling := flag.String("sweep-restart-ceiling", "", "Total sweep runtime before forced restart (default: 3h)")
	stallWindow := flag.String("sweep-stall-window", "", "Max time without sweep progress (default: 10m)")
	inactiveOwnerAge := flag.String("inactive-owner-age", "", "Inactivity age before a user's titles are skipped (default: 720h)")
	unreadCeiling := flag.String("unread-ceiling", "", "Unread queue size that suspends delivery (default: 5000)")

	// Breaker flags
	timeoutThreshold := flag.String("breaker-timeout-threshold", "", "Consecutive timeouts that trip an origin (default: 5)")
	timeoutOverrides := flag.String("breaker-timeout-overrides", "", "Per-origin threshold overrides, origin=count comma-separated")
	breakerReset := flag.String("breaker-reset-interval", "", "Interval that clears all tripped origins (default: 6h)")

	// Scraper flags
	scrapeTimeout := flag.String("scrape-timeout", "", "Per-page fetch timeout (default: 45s)")
	scrapeRPS := flag.String("scrape-rps", "", "Max requests per second per origin (default: 1)")
	userAgent := flag.String("user-agent", "", "User-Agent header for scrape requests")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Sweep: SweepConfig{
			UnreadCeiling: getIntConfigValue(*unreadCeiling, "UNREAD_CEILING", 5000),
		},
		Breaker: BreakerConfig{
			TimeoutThreshold: getIntConfigValue(*timeoutThreshold, "BREAKER_TIMEOUT_THRESHOLD", 5),
		},
		Scraper: ScraperConfig{
			RequestsPerSecond: getFloatConfigValue(*scrapeRPS, "SCRAPE_RPS", 1),
			UserAgent:         getConfigValue(*userAgent, "SCRAPE_USER_AGENT", defaultUserAgent),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
	}

	// Parse durations.
	durations := []struct {
		dst        *time.Duration
		flagValue  string
		envKey     string
		defaultVal string
		name       string
	}{
		{&cfg.Data.FlushInterval, *flushInterval, "FLUSH_INTERVAL", "5m", "flush interval"},
		{&cfg.Sweep.Interval, *sweepInterval, "SWEEP_INTERVAL", "5m", "sweep interval"},
		{&cfg.Sweep.RestartCeiling, *restartCeiling, "SWEEP_RESTART_CEILING", "3h", "sweep restart ceiling"},
		{&cfg.Sweep.StallWindow, *stallWindow, "SWEEP_STALL_WINDOW", "10m", "sweep stall window"},
		{&cfg.Sweep.InactiveOwnerAge, *inactiveOwnerAge, "INACTIVE_OWNER_AGE", "720h", "inactive owner age"},
		{&cfg.Breaker.ResetInterval, *breakerReset, "BREAKER_RESET_INTERVAL", "6h", "breaker reset interval"},
		{&cfg.Scraper.Timeout, *scrapeTimeout, "SCRAPE_TIMEOUT", "45s", "scrape timeout"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
	}
	for _, d := range durations {
		str := getConfigValue(d.flagValue, d.envKey, d.defaultVal)
		parsed, err := time.ParseDuration(str)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, str, err)
		}
		*d.dst = parsed
	}

	// Parse per-origin breaker overrides.
	overrides, err := parseTimeoutOverrides(getConfigValue(*timeoutOverrides, "BREAKER_TIMEOUT_OVERRIDES", "asuracomic.net=10"))
	if err != nil {
		return nil, fmt.Errorf("invalid breaker timeout overrides: %w", err)
	}
	cfg.Breaker.TimeoutOverrides = overrides

	// Expand and validate data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Validate checks that all required config values are present and valid.
// Field-level rules live in the struct tags; cross-field rules are checked here.
func (c *Config) Validate() error {
	c.Logger.Level = strings.ToLower(c.Logger.Level)

	if err := validation.New().Validate(c); err != nil {
		return err
	}

	if c.Sweep.StallWindow >= c.Sweep.RestartCeiling {
		return fmt.Errorf("sweep stall window %s must be shorter than restart ceiling %s",
			c.Sweep.StallWindow, c.Sweep.RestartCeiling)
	}

	return nil
}

// parseTimeoutOverrides parses "host=count,host=count" into a map keyed by
// humanized origin, the form the breaker is driven with at sweep time.
func parseTimeoutOverrides(s string) (map[string]int, error) {
	overrides := make(map[string]int)
	if strings.TrimSpace(s) == "" {
		return overrides, nil
	}
	for pair := range strings.SplitSeq(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		host, countStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected host=count, got %q", pair)
		}
		var count int
		if _, err := fmt.Sscanf(strings.TrimSpace(countStr), "%d", &count); err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid threshold for %q: %q", host, countStr)
		}
		origin := normalize.OriginFromHost(strings.TrimSpace(host))
		if origin == normalize.OriginUnknown {
			return nil, fmt.Errorf("invalid origin host %q", host)
		}
		overrides[origin] = count
	}
	return overrides, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ChapTrail", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float64 from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
