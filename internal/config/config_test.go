package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"LISTEN_ADDR", "PROFILE_BACKEND", "CANCEL_WAIT_MS", "RNG_SEED", "ADMIN_CONSOLE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":1729" {
		t.Fatalf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.CancelWait != 30*time.Second {
		t.Fatalf("CancelWait = %v", cfg.CancelWait)
	}
	if cfg.ProfileBackend != BackendFile || cfg.ProfilesPath != "profiles.txt" {
		t.Fatalf("unexpected store config: %+v", cfg)
	}
	if !cfg.AdminConsole {
		t.Fatalf("admin console enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LISTEN_ADDR", "127.0.0.1:4000")
	t.Setenv("RNG_SEED", "42")
	t.Setenv("CANCEL_WAIT_MS", "0")
	t.Setenv("AUTOSAVE_INTERVAL_SEC", "15")
	t.Setenv("ADMIN_CONSOLE", "false")
	t.Setenv("PROFILE_BACKEND", "file")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:4000" || cfg.RNGSeed != 42 {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.CancelWait != 0 || cfg.AutosaveInterval != 15*time.Second || cfg.AdminConsole {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
}

func TestLoadRejectsRedisWithoutURL(t *testing.T) {
	t.Setenv("PROFILE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
	t.Setenv("PROFILE_BACKEND", "etcd")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRejectsBadSeed(t *testing.T) {
	t.Setenv("PROFILE_BACKEND", "")
	t.Setenv("RNG_SEED", "abc")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
