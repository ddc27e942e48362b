package bootstrap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/readerbot/core/config"
	coredatabase "github.com/m3rciful/readerbot/core/database"
)

func TestRunOrdersSteps(t *testing.T) {
	var steps []string
	res, err := Run(context.Background(), Options{
		Config: &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error {
			steps = append(steps, "logger")
			return nil
		},
		Migrate: func(context.Context, coredatabase.Config) error {
			steps = append(steps, "migrate")
			return nil
		},
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return &sqlx.DB{}, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB == nil || strings.Join(steps, ",") != "logger,migrate,connect" {
		t.Fatalf("steps = %v", steps)
	}
}

func TestRunStopsOnMigrationFailure(t *testing.T) {
	boom := errors.New("boom")
	connected := false
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return nil },
		Migrate:    func(context.Context, coredatabase.Config) error { return boom },
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, nil
		},
	})
	if !errors.Is(err, boom) || connected {
		t.Fatalf("err = %v connected = %v", err, connected)
	}
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
