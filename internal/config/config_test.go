package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/typeboard/typeboard/internal/domain"
)

func TestFromEnvironment(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := FromEnvironment(map[string]string{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Profile != domain.ProfileStandalone {
			t.Errorf("expected standalone profile, got %s", cfg.Profile)
		}
		if cfg.Repository.Driver != "sqlite" {
			t.Errorf("expected sqlite driver, got %s", cfg.Repository.Driver)
		}
		if cfg.Dashboard.Seed != 42 {
			t.Errorf("expected seed 42, got %d", cfg.Dashboard.Seed)
		}
	})

	t.Run("ClusterProfile", func(t *testing.T) {
		cfg, err := FromEnvironment(map[string]string{
			"TYPEBOARD_PROFILE": "cluster",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Repository.Driver != "postgres" {
			t.Errorf("expected postgres driver, got %s", cfg.Repository.Driver)
		}
		if cfg.Cache.Type != "redis" || !cfg.Cache.EnableTwoPhase {
			t.Errorf("expected two-phase redis cache, got %+v", cfg.Cache)
		}
		if len(cfg.Cache.SharedNamespaces) != 1 || cfg.Cache.SharedNamespaces[0] != domain.SessionNamespace {
			t.Errorf("expected sessions to bypass the local tier, got %v", cfg.Cache.SharedNamespaces)
		}
		if cfg.EventBus.Type != "nats" {
			t.Errorf("expected nats bus, got %s", cfg.EventBus.Type)
		}
	})

	t.Run("Overrides", func(t *testing.T) {
		cfg, err := FromEnvironment(map[string]string{
			"TYPEBOARD_SERVER_PORT":             "9090",
			"TYPEBOARD_DASHBOARD_SEED":          "7",
			"TYPEBOARD_DASHBOARD_EXPORT_WINDOW": "2m",
			"TYPEBOARD_LOG_FORMAT":              "text",
			"TYPEBOARD_DB_SQLITE_PATH":          "/tmp/tb.db",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Server.Port != 9090 {
			t.Errorf("expected port 9090, got %d", cfg.Server.Port)
		}
		if cfg.Dashboard.Seed != 7 {
			t.Errorf("expected seed 7, got %d", cfg.Dashboard.Seed)
		}
		if cfg.Dashboard.ExportWindow != 2*time.Minute {
			t.Errorf("expected 2m window, got %s", cfg.Dashboard.ExportWindow)
		}
		if cfg.Logging.Format != "text" {
			t.Errorf("expected text log format, got %s", cfg.Logging.Format)
		}
		if cfg.Repository.SQLitePath != "/tmp/tb.db" {
			t.Errorf("unexpected sqlite path %s", cfg.Repository.SQLitePath)
		}
	})

	t.Run("InvalidPort", func(t *testing.T) {
		_, err := FromEnvironment(map[string]string{"TYPEBOARD_SERVER_PORT": "0"})
		if err == nil {
			t.Error("expected error for port 0")
		}
	})

	t.Run("UnparseableValue", func(t *testing.T) {
		_, err := FromEnvironment(map[string]string{"TYPEBOARD_DASHBOARD_SEED": "forty-two"})
		if err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("TYPEBOARD_DASHBOARD_EXPORT_LIMIT=3\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TYPEBOARD_DASHBOARD_EXPORT_LIMIT") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dashboard.ExportLimit != 3 {
		t.Errorf("expected export limit 3, got %d", cfg.Dashboard.ExportLimit)
	}
}
