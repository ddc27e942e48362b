package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/internal/book"
)

const bookColumns = `id, owner_id, storage_key, filename, title, format, current_page, is_read, created_at, updated_at`

// Postgres is a Registry backed by the users and books tables.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open connection pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("registry: user exists: %w", err)
	}
	return exists, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u book.User) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, display_name) VALUES ($1, $2)`, u.ID, u.DisplayName)
	if err != nil {
		return fmt.Errorf("registry: create user: %w", err)
	}
	return nil
}

func (p *Postgres) EnsureUser(ctx context.Context, u book.User) (bool, error) {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO users (id, display_name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, u.ID, u.DisplayName)
	if err != nil {
		return false, fmt.Errorf("registry: ensure user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("registry: ensure user: %w", err)
	}
	if n > 0 {
		logger.Info(ctx, "registry", "user.create", slog.Int64("user_id", u.ID))
	}
	return n > 0, nil
}

func (p *Postgres) UpsertBook(ctx context.Context, b book.Book) (book.Book, error) {
	start := time.Now()
	var out book.Book
	err := p.db.GetContext(ctx, &out, `
		INSERT INTO books (id, owner_id, storage_key, filename, title, format)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			storage_key = EXCLUDED.storage_key,
			filename    = EXCLUDED.filename,
			title       = EXCLUDED.title,
			format      = EXCLUDED.format,
			updated_at  = now()
		RETURNING `+bookColumns,
		b.ID, b.OwnerID, b.StorageKey, b.Filename, b.Title, string(b.Format))
	if err != nil {
		return book.Book{}, fmt.Errorf("registry: upsert book: %w", err)
	}
	logger.Debug(ctx, "registry", "book.upsert",
		slog.String("book_id", out.ID),
		slog.Int("page", out.CurrentPage),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}

func (p *Postgres) GetBook(ctx context.Context, bookID string) (book.Book, error) {
	var out book.Book
	err := p.db.GetContext(ctx, &out, `SELECT `+bookColumns+` FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return book.Book{}, book.ErrBookNotFound
	}
	if err != nil {
		return book.Book{}, fmt.Errorf("registry: get book: %w", err)
	}
	return out, nil
}

func (p *Postgres) RemoveBook(ctx context.Context, bookID string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, bookID); err != nil {
		return fmt.Errorf("registry: remove book: %w", err)
	}
	return nil
}

func (p *Postgres) SetCurrentBook(ctx context.Context, userID int64, bookID string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET current_book_id = $2 WHERE id = $1`, userID, bookID)
	if err != nil {
		return fmt.Errorf("registry: set current book: %w", err)
	}
	return expectRow(res, ErrUserNotFound)
}

func (p *Postgres) ClearCurrentBook(ctx context.Context, userID int64) error {
	if _, err := p.db.ExecContext(ctx, `UPDATE users SET current_book_id = NULL WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("registry: clear current book: %w", err)
	}
	return nil
}

func (p *Postgres) CurrentBookID(ctx context.Context, userID int64) (string, error) {
	var id sql.NullString
	err := p.db.GetContext(ctx, &id, `SELECT current_book_id FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("registry: current book: %w", err)
	}
	return id.String, nil
}

func (p *Postgres) Page(ctx context.Context, bookID string) (int, error) {
	var page int
	err := p.db.GetContext(ctx, &page, `SELECT current_page FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, book.ErrBookNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("registry: page: %w", err)
	}
	return page, nil
}

func (p *Postgres) SetPage(ctx context.Context, bookID string, page int) error {
	if page < 0 {
		return fmt.Errorf("registry: negative page %d", page)
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE books SET current_page = $2, updated_at = now() WHERE id = $1`, bookID, page)
	if err != nil {
		return fmt.Errorf("registry: set page: %w", err)
	}
	return expectRow(res, book.ErrBookNotFound)
}

func (p *Postgres) IsRead(ctx context.Context, bookID string) (bool, error) {
	var read bool
	err := p.db.GetContext(ctx, &read, `SELECT is_read FROM books WHERE id = $1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, book.ErrBookNotFound
	}
	if err != nil {
		return false, fmt.Errorf("registry: is read: %w", err)
	}
	return read, nil
}

func (p *Postgres) MarkRead(ctx context.Context, bookID string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE books SET is_read = true, updated_at = now() WHERE id = $1`, bookID)
	if err != nil {
		return fmt.Errorf("registry: mark read: %w", err)
	}
	return expectRow(res, book.ErrBookNotFound)
}

func expectRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("registry: rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}
