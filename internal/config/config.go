package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultDatasetURL is the published offsets workbook. Overridable for
// mirrors and tests via DATASET_URL.
const DefaultDatasetURL = "https://gspp.berkeley.edu/assets/uploads/page/Voluntary-Registry-Offsets-Database.xlsx"

type Config struct {
	// HTTP server
	Port string

	// Dataset source
	DatasetURL   string
	SheetName    string
	SheetKeyword string
	FetchTimeout time.Duration

	// Initial filter defaults
	DefaultStatuses []string

	// Logging
	LogLevel slog.Level
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DatasetURL:   getEnv("DATASET_URL", DefaultDatasetURL),
		SheetName:    getEnv("DATASET_SHEET", "AGRICULTURE"),
		SheetKeyword: getEnv("DATASET_SHEET_KEYWORD", "agri"),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),

		DefaultStatuses: getEnvList("DEFAULT_STATUSES", []string{"Registered", "Completed"}),

		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
	return cfg
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DatasetURL == "" {
		errs = append(errs, "dataset URL cannot be empty")
	} else if u, err := url.Parse(c.DatasetURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid dataset URL '%s': %v", c.DatasetURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Sprintf("invalid dataset URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.SheetName == "" && c.SheetKeyword == "" {
		errs = append(errs, "either DATASET_SHEET or DATASET_SHEET_KEYWORD must be set")
	}

	if c.FetchTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 10*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid fetch timeout %v: must be at most 10 minutes", c.FetchTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvLevel(key string, defaultValue slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return defaultValue
}
