package registry

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	coredatabase "github.com/m3rciful/readerbot/core/database"
)

// testDSNEnv names a postgres:// URL of a disposable database.
const testDSNEnv = "READERBOT_TEST_DSN"

func TestPostgresContract(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	if err := coredatabase.Migrate(context.Background(), dsn, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	runContract(t, func(t *testing.T) Registry {
		if _, err := db.Exec(`TRUNCATE users, books CASCADE`); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		return NewPostgres(db)
	})
}
