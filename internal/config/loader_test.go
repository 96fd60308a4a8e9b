package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func unsetAll(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigFile,
		EnvHTTPPort,
		EnvSQLiteDSN,
		EnvTokenSecret,
		EnvTokenTTL,
		EnvCalendarDir,
		EnvCalendarCron,
		EnvFeedCacheTTL,
		EnvLogLevel,
	} {
		// Setenv registers the restore; Unsetenv then clears it for this test.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unsetAll(t)
		const secret = "super-secret"
		t.Setenv(EnvTokenSecret, secret)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		want := Default()
		want.TokenSecret = secret
		if cfg != want {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.Addr() != ":8080" {
			t.Fatalf("unexpected listen address %q", cfg.Addr())
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		unsetAll(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required settings are missing: " + EnvTokenSecret
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		unsetAll(t)
		t.Setenv(EnvTokenSecret, "secret-value")
		t.Setenv(EnvHTTPPort, "9090")
		t.Setenv(EnvSQLiteDSN, "/tmp/scheduler.db")
		t.Setenv(EnvTokenTTL, "2h")
		t.Setenv(EnvCalendarDir, "/var/lib/venue-scheduler/feeds")
		t.Setenv(EnvCalendarCron, "0 * * * *")
		t.Setenv(EnvFeedCacheTTL, "30s")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "/tmp/scheduler.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.TokenTTL != 2*time.Hour {
			t.Fatalf("expected token TTL 2h, got %s", cfg.TokenTTL)
		}
		if cfg.CalendarDir != "/var/lib/venue-scheduler/feeds" || cfg.CalendarCron != "0 * * * *" {
			t.Fatalf("unexpected calendar settings: %+v", cfg)
		}
		if cfg.FeedCacheTTL != 30*time.Second {
			t.Fatalf("expected feed cache TTL 30s, got %s", cfg.FeedCacheTTL)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		unsetAll(t)
		t.Setenv(EnvTokenSecret, "secret-value")
		t.Setenv(EnvHTTPPort, "eighty")
		t.Setenv(EnvTokenTTL, "-1h")
		t.Setenv(EnvCalendarCron, "whenever")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid values")
		}
		for _, key := range []string{EnvHTTPPort, EnvTokenTTL, EnvCalendarCron} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in error, got %q", key, err.Error())
			}
		}
	})
}

func TestLoader_ConfigFile(t *testing.T) {

	t.Run("file values apply and environment wins", func(t *testing.T) {
		unsetAll(t)
		path := writeConfigFile(t, strings.Join([]string{
			"http_port: 7070",
			"sqlite_dsn: /srv/venues.db",
			"token_secret: from-file",
			"token_ttl: 12h",
			"calendar_dir: /srv/feeds",
		}, "\n"))
		t.Setenv(EnvConfigFile, path)
		t.Setenv(EnvHTTPPort, "9191")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}
		if cfg.HTTPPort != 9191 {
			t.Fatalf("expected environment port to win, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "/srv/venues.db" || cfg.TokenSecret != "from-file" {
			t.Fatalf("expected file values, got %+v", cfg)
		}
		if cfg.TokenTTL != 12*time.Hour || cfg.CalendarDir != "/srv/feeds" {
			t.Fatalf("expected file values, got %+v", cfg)
		}
		if cfg.CalendarCron != Default().CalendarCron {
			t.Fatalf("expected default cron, got %q", cfg.CalendarCron)
		}
	})

	t.Run("invalid file values are reported", func(t *testing.T) {
		unsetAll(t)
		t.Setenv(EnvConfigFile, writeConfigFile(t, "token_secret: s\nfeed_cache_ttl: soon\n"))

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), EnvFeedCacheTTL) {
			t.Fatalf("expected invalid feed cache TTL error, got %v", err)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		unsetAll(t)
		t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))
		t.Setenv(EnvTokenSecret, "secret-value")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		unsetAll(t)
		t.Setenv(EnvConfigFile, writeConfigFile(t, "http_port: [1, 2"))
		t.Setenv(EnvTokenSecret, "secret-value")

		if _, err := Load(); err == nil {
			t.Fatalf("expected parse error")
		}
	})
}
