package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_NAME",
		"REDIS_HOST", "REDIS_PORT", "BACKEND_PORT",
		"SIMULATOR_ENABLED", "SIMULATOR_TICK_MS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("server port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Redis.Host != "localhost" || cfg.Redis.Port != 6379 {
		t.Errorf("redis defaults = %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}
	if cfg.Database.DBName != "hiddensnoo" {
		t.Errorf("db name = %q", cfg.Database.DBName)
	}
	if cfg.Simulator.Enabled {
		t.Error("simulator enabled by default")
	}
	if cfg.Simulator.TickInterval != 2*time.Second {
		t.Errorf("simulator tick = %v", cfg.Simulator.TickInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BACKEND_PORT", "9090")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("SIMULATOR_ENABLED", "true")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.GetRedisAddr() != "redis.internal:6379" {
		t.Errorf("redis addr = %q", cfg.GetRedisAddr())
	}
	if !cfg.Simulator.Enabled {
		t.Error("simulator override not applied")
	}
}

func TestGetDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "game")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "snoo")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := "host=db.internal port=5433 user=game password=secret dbname=snoo sslmode=require"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}

	t.Setenv("DATABASE_URL", "postgres://direct")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.GetDSN(); got != "postgres://direct" {
		t.Errorf("DATABASE_URL not preferred: %q", got)
	}
}
