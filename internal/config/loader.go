package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigFile   = "VENUE_SCHEDULER_CONFIG"
	EnvHTTPPort     = "VENUE_SCHEDULER_HTTP_PORT"
	EnvSQLiteDSN    = "VENUE_SCHEDULER_SQLITE_DSN"
	EnvTokenSecret  = "VENUE_SCHEDULER_TOKEN_SECRET"
	EnvTokenTTL     = "VENUE_SCHEDULER_TOKEN_TTL"
	EnvCalendarDir  = "VENUE_SCHEDULER_CALENDAR_DIR"
	EnvCalendarCron = "VENUE_SCHEDULER_CALENDAR_CRON"
	EnvFeedCacheTTL = "VENUE_SCHEDULER_FEED_CACHE_TTL"
	EnvLogLevel     = "VENUE_SCHEDULER_LOG_LEVEL"
)

// Config captures the settings of the scheduler service.
type Config struct {
	HTTPPort    int
	SQLiteDSN   string
	TokenSecret string
	TokenTTL    time.Duration
	// CalendarDir enables periodic feed publishing when non-empty.
	CalendarDir  string
	CalendarCron string
	FeedCacheTTL time.Duration
	LogLevel     string
}

// fileConfig mirrors the optional YAML file. Durations are kept as strings so
// they go through the same parsing as the environment.
type fileConfig struct {
	HTTPPort     int    `yaml:"http_port"`
	SQLiteDSN    string `yaml:"sqlite_dsn"`
	TokenSecret  string `yaml:"token_secret"`
	TokenTTL     string `yaml:"token_ttl"`
	CalendarDir  string `yaml:"calendar_dir"`
	CalendarCron string `yaml:"calendar_cron"`
	FeedCacheTTL string `yaml:"feed_cache_ttl"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is overridden. The
// token secret has no default.
func Default() Config {
	return Config{
		HTTPPort:     8080,
		SQLiteDSN:    "venue-scheduler.db",
		TokenTTL:     24 * time.Hour,
		CalendarCron: "*/15 * * * *",
		FeedCacheTTL: time.Minute,
		LogLevel:     "info",
	}
}

// Load builds the configuration from the optional YAML file named by
// VENUE_SCHEDULER_CONFIG and then the process environment, which wins over
// the file. Every missing or invalid setting is reported in a single error.
func Load() (Config, error) {
	cfg := Default()

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		invalid = append(invalid, file.apply(&cfg)...)
	}

	if portValue := strings.TrimSpace(os.Getenv(EnvHTTPPort)); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, EnvHTTPPort)
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv(EnvSQLiteDSN)); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv(EnvTokenSecret)); secret != "" {
		cfg.TokenSecret = secret
	}
	if cfg.TokenSecret == "" {
		missing = append(missing, EnvTokenSecret)
	}

	if ttlValue := strings.TrimSpace(os.Getenv(EnvTokenTTL)); ttlValue != "" {
		if ttl, ok := parsePositiveDuration(ttlValue); ok {
			cfg.TokenTTL = ttl
		} else {
			invalid = append(invalid, EnvTokenTTL)
		}
	}

	if dir := strings.TrimSpace(os.Getenv(EnvCalendarDir)); dir != "" {
		cfg.CalendarDir = dir
	}

	if spec := strings.TrimSpace(os.Getenv(EnvCalendarCron)); spec != "" {
		cfg.CalendarCron = spec
	}
	if _, err := cron.ParseStandard(cfg.CalendarCron); err != nil {
		invalid = append(invalid, EnvCalendarCron)
	}

	if ttlValue := strings.TrimSpace(os.Getenv(EnvFeedCacheTTL)); ttlValue != "" {
		if ttl, ok := parsePositiveDuration(ttlValue); ok {
			cfg.FeedCacheTTL = ttl
		} else {
			invalid = append(invalid, EnvFeedCacheTTL)
		}
	}

	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.LogLevel = level
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required settings are missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("settings have invalid values: %s", strings.Join(dedupe(invalid), ", "))
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func readFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileConfig{}, fmt.Errorf("config file %s does not exist", path)
		}
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

// apply copies the set fields onto cfg and returns the names of invalid ones,
// labelled with the environment variable that overrides them.
func (f fileConfig) apply(cfg *Config) []string {
	var invalid []string

	switch {
	case f.HTTPPort < 0 || f.HTTPPort > 65535:
		invalid = append(invalid, EnvHTTPPort)
	case f.HTTPPort > 0:
		cfg.HTTPPort = f.HTTPPort
	}
	if v := strings.TrimSpace(f.SQLiteDSN); v != "" {
		cfg.SQLiteDSN = v
	}
	if v := strings.TrimSpace(f.TokenSecret); v != "" {
		cfg.TokenSecret = v
	}
	if v := strings.TrimSpace(f.TokenTTL); v != "" {
		if ttl, ok := parsePositiveDuration(v); ok {
			cfg.TokenTTL = ttl
		} else {
			invalid = append(invalid, EnvTokenTTL)
		}
	}
	if v := strings.TrimSpace(f.CalendarDir); v != "" {
		cfg.CalendarDir = v
	}
	if v := strings.TrimSpace(f.CalendarCron); v != "" {
		cfg.CalendarCron = v
	}
	if v := strings.TrimSpace(f.FeedCacheTTL); v != "" {
		if ttl, ok := parsePositiveDuration(v); ok {
			cfg.FeedCacheTTL = ttl
		} else {
			invalid = append(invalid, EnvFeedCacheTTL)
		}
	}
	if v := strings.TrimSpace(f.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	return invalid
}

func parsePositiveDuration(value string) (time.Duration, bool) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
