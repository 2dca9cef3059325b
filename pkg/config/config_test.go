package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
backend:
  type: clickhouse
feed:
  symbols: ["BINANCE:BTCUSDT"]
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("server port default = %d", cfg.Server.Port)
	}
	if !cfg.Guard.IsEnabled() {
		t.Fatalf("guard should default to enabled")
	}
	if cfg.Guard.MinDown != 0.005 {
		t.Fatalf("guard min_down default = %v", cfg.Guard.MinDown)
	}
	if cfg.Guard.Cooldown() != 30*time.Second {
		t.Fatalf("guard cooldown default = %v", cfg.Guard.Cooldown())
	}
	if cfg.Exit.TrailMode != "percent" || cfg.Exit.TrailPercent != 0.1 {
		t.Fatalf("exit defaults = %s/%v", cfg.Exit.TrailMode, cfg.Exit.TrailPercent)
	}
	if cfg.Redis.ReplayQueue != "guard:replay" {
		t.Fatalf("replay queue default = %s", cfg.Redis.ReplayQueue)
	}
}

func TestLoadExplicitDisable(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
backend:
  type: clickhouse
feed:
  symbols: ["BINANCE:BTCUSDT"]
guard:
  enabled: false
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Guard.IsEnabled() {
		t.Fatalf("explicit enabled: false must survive defaults")
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
feed:
  symbols: ["BINANCE:ETHUSDT"]
guard:
  min_down: 0.02
  cooldown_sec: 1.5
exit:
  trail_mode: atr
  time_stop_bars: 10
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Guard.MinDown != 0.02 {
		t.Fatalf("min_down = %v", cfg.Guard.MinDown)
	}
	if cfg.Guard.Cooldown() != 1500*time.Millisecond {
		t.Fatalf("cooldown = %v", cfg.Guard.Cooldown())
	}
	if cfg.Exit.TrailMode != "atr" || cfg.Exit.TimeStopBars != 10 {
		t.Fatalf("exit = %s/%d", cfg.Exit.TrailMode, cfg.Exit.TimeStopBars)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: postgres
feed:
  symbols: ["X"]
`))
	if err == nil {
		t.Fatalf("unknown backend should fail validation")
	}
}

func TestValidateRejectsBadGuard(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
feed:
  symbols: ["X"]
guard:
  min_down: -0.1
`))
	if err == nil {
		t.Fatalf("negative min_down should fail validation")
	}
}

func TestValidateRejectsBadTrailMode(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
backend:
  type: kafka
feed:
  symbols: ["X"]
exit:
  trail_mode: fibonacci
`))
	if err == nil {
		t.Fatalf("unknown trail mode should fail validation")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "kafka")
	t.Setenv("SYMBOLS", "A,B")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.Type != "kafka" {
		t.Fatalf("backend = %s", cfg.Backend.Type)
	}
	if len(cfg.Feed.Symbols) != 2 || cfg.Feed.Symbols[1] != "B" {
		t.Fatalf("symbols = %v", cfg.Feed.Symbols)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Fatalf("redis addr = %s", cfg.Redis.Addr)
	}
}
