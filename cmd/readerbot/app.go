package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/readerbot/core/bootstrap"
	"github.com/m3rciful/readerbot/core/cmd"
	"github.com/m3rciful/readerbot/core/logger"
	coretelegram "github.com/m3rciful/readerbot/core/telegram"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"
	"github.com/m3rciful/readerbot/core/telegram/middleware"
	"github.com/m3rciful/readerbot/core/telegram/sender"
	"github.com/m3rciful/readerbot/internal/bot"
	"github.com/m3rciful/readerbot/internal/config"
	"github.com/m3rciful/readerbot/internal/locker"
	"github.com/m3rciful/readerbot/internal/reader"
	"github.com/m3rciful/readerbot/internal/registry"
	"github.com/m3rciful/readerbot/internal/storage"

	tele "gopkg.in/telebot.v4"
)

type app struct {
	cfg        *config.Config
	db         *sqlx.DB
	rdb        *redis.Client
	reader     *reader.Service
	metrics    *middleware.Metrics
	dispatcher *sender.Dispatcher
}

func newApp(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{Config: cfg.CoreConfig(), Database: cfg.Database})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: res.DB, metrics: &middleware.Metrics{}}

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	lock, err := a.openLocker(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	a.reader = reader.New(reader.Options{
		Registry:  registry.NewPostgres(a.db),
		Storage:   store,
		Locker:    lock,
		PageSize:  cfg.Reader.PageSize,
		OpTimeout: cfg.Reader.OpTimeout(),
	})
	a.dispatcher = sender.NewDispatcher(sender.Options{})
	logger.Info(ctx, "app", "wired",
		slog.String("backend", cfg.Storage.Backend),
		slog.String("lock", cfg.Lock.Backend),
		slog.Int("pages", cfg.Reader.PageSize),
	)
	return a, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageMinio:
		return storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return storage.NewFileStore(cfg.Local.Dir)
	}
}

func (a *app) openLocker(ctx context.Context) (locker.Locker, error) {
	l := a.cfg.Lock
	if l.Backend != config.LockRedis {
		return locker.NewMemory(), nil
	}
	rdb, err := locker.Connect(ctx, l.RedisURL)
	if err != nil {
		return nil, err
	}
	a.rdb = rdb
	return locker.NewRedis(rdb, locker.RedisOptions{
		TTL:  time.Duration(l.TTLMS) * time.Millisecond,
		Wait: time.Duration(l.WaitMS) * time.Millisecond,
	}), nil
}

// TelegramRunOptions registers the bot handlers and assembles the runtime.
func (a *app) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	handlers, err := bot.New(bot.Options{
		Reader:         a.reader,
		MaxUploadBytes: a.cfg.Reader.MaxUploadBytes(),
		Metrics:        a.metrics,
		Dispatcher:     a.dispatcher,
	})
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg := coretelegram.NewRegistry()
	if err := handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}
	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Dispatcher:  a.dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(core, a.metrics, onLimited),
		Routes:      handlers.Routes(reg, core.Telegram.AdminID),
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return a.close(ctx)
		},
	}, nil
}

func onLimited(c tele.Context) error {
	return tghelpers.Answer(c, "Too many requests. Please slow down.", false)
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	err := errors.Join(errs...)
	logger.Info(ctx, "app", "closed", slog.String("status", logger.Status(err)))
	return err
}
