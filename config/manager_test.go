package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.ReportsDir = filepath.Join(dir, "reports")
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.DataCacheDir = filepath.Join(dir, "cache")

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.LogDir != cfg.LogDir {
		t.Fatalf("expected log dir %s, got %s", cfg.LogDir, updated.LogDir)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.LLMProvider = "carrier-pigeon"
	if err := mgr.Update(cfg); err == nil {
		t.Fatal("expected update with unknown provider to fail")
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		reloaded <- struct{}{}
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.LogDir = filepath.Join(dir, "changed")

	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FMP_API_KEY", "env-fmp-key")
	t.Setenv("EQUITYGO_MAX_ITERATIONS", "3")
	t.Setenv("EQUITYGO_SESSION_TIMEOUT", "90s")
	t.Setenv("LLM_PROVIDER", "DeepSeek")

	cfg := DefaultConfig()
	if cfg.FMPAPIKey != "env-fmp-key" {
		t.Fatalf("expected FMP key from env, got %q", cfg.FMPAPIKey)
	}
	if cfg.MaxIterations != 3 {
		t.Fatalf("expected 3 iterations, got %d", cfg.MaxIterations)
	}
	if cfg.SessionTimeout != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %s", cfg.SessionTimeout)
	}
	if cfg.LLMProvider != "deepseek" {
		t.Fatalf("expected provider lowered to deepseek, got %q", cfg.LLMProvider)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfigWithRoot(t.TempDir())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	cfg.MaxIterations = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected zero max_iterations to be rejected")
	}
}
