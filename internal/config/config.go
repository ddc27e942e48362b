// Package config composes the reader bot configuration from the core sections and
// the bot specific ones.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/readerbot/core/config"
	coredatabase "github.com/m3rciful/readerbot/core/database"
	"github.com/m3rciful/readerbot/internal/paginate"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// Lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// LocalStorageConfig stores books on the local filesystem.
type LocalStorageConfig struct {
	Dir string `yaml:"dir" envconfig:"STORAGE_DIR"`
}

// MinioStorageConfig stores books in an S3 compatible bucket.
type MinioStorageConfig struct {
	Endpoint  string `yaml:"endpoint" envconfig:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" envconfig:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" envconfig:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" envconfig:"MINIO_BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" envconfig:"MINIO_USE_SSL"`
}

// StorageConfig selects where raw book files live.
type StorageConfig struct {
	Backend string             `yaml:"backend" envconfig:"STORAGE_BACKEND"`
	Local   LocalStorageConfig `yaml:"local"`
	Minio   MinioStorageConfig `yaml:"minio"`
}

// ReaderConfig tunes pagination and uploads.
type ReaderConfig struct {
	PageSize         int `yaml:"page_size" envconfig:"READER_PAGE_SIZE"`
	MaxUploadMB      int `yaml:"max_upload_mb" envconfig:"READER_MAX_UPLOAD_MB"`
	OpTimeoutSeconds int `yaml:"op_timeout_seconds" envconfig:"READER_OP_TIMEOUT_SECONDS"`
}

// MaxUploadBytes returns the upload cap in bytes.
func (r ReaderConfig) MaxUploadBytes() int64 { return int64(r.MaxUploadMB) << 20 }

// OpTimeout returns the per-operation deadline.
func (r ReaderConfig) OpTimeout() time.Duration {
	return time.Duration(r.OpTimeoutSeconds) * time.Second
}

// LockConfig selects how operations of one user are serialized.
type LockConfig struct {
	Backend  string `yaml:"backend" envconfig:"LOCK_BACKEND"`
	RedisURL string `yaml:"redis_url" envconfig:"REDIS_URL"`
	TTLMS    int    `yaml:"ttl_ms" envconfig:"LOCK_TTL_MS"`
	WaitMS   int    `yaml:"wait_ms" envconfig:"LOCK_WAIT_MS"`
}

// Config is the full reader bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
	Reader   ReaderConfig        `yaml:"reader"`
	Lock     LockConfig          `yaml:"lock"`
}

// CoreConfig exposes the embedded core sections.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// Load reads path, overlays the environment and normalizes the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}

	s := &cfg.Storage
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = StorageLocal
		fallthrough
	case StorageLocal:
		if strings.TrimSpace(s.Local.Dir) == "" {
			s.Local.Dir = "data/books"
		}
	case StorageMinio:
		if s.Minio.Endpoint == "" || s.Minio.Bucket == "" {
			return fmt.Errorf("storage.minio.endpoint and storage.minio.bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: local, minio", cfg.Storage.Backend)
	}

	r := &cfg.Reader
	if r.PageSize < 0 || r.MaxUploadMB < 0 || r.OpTimeoutSeconds < 0 {
		return fmt.Errorf("reader settings must be >= 0")
	}
	if r.PageSize == 0 {
		r.PageSize = paginate.DefaultPageSize
	}
	if r.MaxUploadMB == 0 {
		r.MaxUploadMB = 20
	}
	if r.OpTimeoutSeconds == 0 {
		r.OpTimeoutSeconds = 30
	}

	l := &cfg.Lock
	l.Backend = strings.ToLower(strings.TrimSpace(l.Backend))
	switch l.Backend {
	case "":
		l.Backend = LockMemory
	case LockMemory:
	case LockRedis:
		if strings.TrimSpace(l.RedisURL) == "" {
			return fmt.Errorf("lock.redis_url is required for the redis lock backend")
		}
	default:
		return fmt.Errorf("invalid lock.backend %q; allowed: memory, redis", cfg.Lock.Backend)
	}
	if l.TTLMS < 0 || l.WaitMS < 0 {
		return fmt.Errorf("lock.ttl_ms and lock.wait_ms must be >= 0")
	}
	if l.TTLMS == 0 {
		l.TTLMS = 30000
	}
	if l.WaitMS == 0 {
		l.WaitMS = 5000
	}
	return nil
}
