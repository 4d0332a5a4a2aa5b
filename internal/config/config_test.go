package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DBPath == "" {
		t.Error("DBPath should have a default")
	}
	if cfg.APIPort == 0 {
		t.Error("APIPort should have a default")
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval default = %v, want 1s", cfg.TickInterval)
	}
	if cfg.RefreshWorkers < 1 {
		t.Error("RefreshWorkers should be at least 1")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STATECRAFT_API_PORT", "9191")
	t.Setenv("STATECRAFT_REDIS_ADDR", "localhost:6379")
	t.Setenv("STATECRAFT_REFRESH_WORKERS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != 9191 {
		t.Errorf("APIPort = %d, want 9191", cfg.APIPort)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	// Zero workers is nonsense; Load floors it.
	if cfg.RefreshWorkers != 1 {
		t.Errorf("RefreshWorkers = %d, want 1", cfg.RefreshWorkers)
	}
}
