package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
telegram:
  token: "123:abc"
  admin_id: 7
database:
  host: localhost
  port: "5432"
  user: reader
  name: reader
storage:
  backend: minio
  minio:
    endpoint: "minio:9000"
    bucket: books
lock:
  backend: redis
  redis_url: "redis://localhost:6379/0"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CoreConfig().Telegram.Token != "123:abc" || cfg.Telegram.AdminID != 7 {
		t.Fatalf("telegram = %+v", cfg.Telegram)
	}
	if cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Reader.PageSize != 10 || cfg.Reader.MaxUploadBytes() != 20<<20 || cfg.Reader.OpTimeoutSeconds != 30 {
		t.Fatalf("reader = %+v", cfg.Reader)
	}
	if cfg.Storage.Backend != StorageMinio || cfg.Lock.Backend != LockRedis || cfg.Lock.TTLMS != 30000 {
		t.Fatalf("storage/lock = %+v %+v", cfg.Storage, cfg.Lock)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("sslmode = %q", cfg.Database.SSLMode)
	}
}

func TestEnvironmentOverridesReader(t *testing.T) {
	t.Setenv("READER_PAGE_SIZE", "4")
	t.Setenv("STORAGE_BACKEND", "local")
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Reader.PageSize != 4 {
		t.Fatalf("page size = %d", cfg.Reader.PageSize)
	}
	if cfg.Storage.Backend != StorageLocal || cfg.Storage.Local.Dir == "" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
}

func TestNormalizeRejectsBadBackends(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Telegram.Token = "t"
		cfg.Database.Host = "db"
		cfg.Database.Name = "reader"
		return cfg
	}
	cfg := base()
	cfg.Storage.Backend = "ftp"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected storage backend error")
	}
	cfg = base()
	cfg.Lock.Backend = "redis"
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected missing redis url error")
	}
	cfg = base()
	cfg.Reader.PageSize = -1
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected reader settings error")
	}
	cfg = base()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}
