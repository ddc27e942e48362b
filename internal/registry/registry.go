// Package registry stores users, their books and reading positions.
//
// Every book-scoped operation is keyed by the canonical book ID produced at upload,
// and every user-scoped operation by the Telegram user ID.
package registry

import (
	"context"
	"errors"

	"github.com/m3rciful/readerbot/internal/book"
)

// ErrUserNotFound is returned when a user-scoped write targets an unknown user.
var ErrUserNotFound = errors.New("registry: user not found")

// Registry is the durable store consumed by the reader service.
type Registry interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	CreateUser(ctx context.Context, u book.User) error
	// EnsureUser creates u when missing and reports whether it did.
	EnsureUser(ctx context.Context, u book.User) (bool, error)

	// UpsertBook inserts b or refreshes its file metadata, keeping position and
	// read flag. It returns the stored record.
	UpsertBook(ctx context.Context, b book.Book) (book.Book, error)
	// GetBook returns book.ErrBookNotFound for unknown IDs.
	GetBook(ctx context.Context, bookID string) (book.Book, error)
	RemoveBook(ctx context.Context, bookID string) error

	SetCurrentBook(ctx context.Context, userID int64, bookID string) error
	ClearCurrentBook(ctx context.Context, userID int64) error
	// CurrentBookID returns "" when the user has no current book.
	CurrentBookID(ctx context.Context, userID int64) (string, error)

	Page(ctx context.Context, bookID string) (int, error)
	SetPage(ctx context.Context, bookID string, page int) error
	IsRead(ctx context.Context, bookID string) (bool, error)
	MarkRead(ctx context.Context, bookID string) error
}
