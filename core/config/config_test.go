package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "t", RunMode: " Polling "}}
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "", "document"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if strings.Join(cfg.RateLimit.ExcludeUpdates, ",") != "callback,document" {
		t.Fatalf("exclude = %v", cfg.RateLimit.ExcludeUpdates)
	}
	if !cfg.RateLimit.Excluded(UpdateCallback) || cfg.RateLimit.Excluded(UpdateMessage) {
		t.Fatal("unexpected exclusion result")
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]Config{
		"no token":     {},
		"bad mode":     {Telegram: TelegramConfig{Token: "t", RunMode: "push"}},
		"webhook url":  {Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}},
		"bad exclude":  {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline"}}},
		"neg interval": {Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{IntervalMS: -1}},
	}
	for name, cfg := range cases {
		cfg := cfg
		if err := Normalize(&cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "telegram:\n  token: from-file\n  run_mode: longpoll\nlogging:\n  level: info\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" || cfg.Logging.Level != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadWithoutFileUsesEnvironment(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-only")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "env-only" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}
