package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m3rciful/readerbot/internal/book"
)

// Memory is an in-process Registry used in tests and single-binary development runs.
type Memory struct {
	mu    sync.RWMutex
	users map[int64]book.User
	books map[string]book.Book
	now   func() time.Time
}

// NewMemory constructs an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[int64]book.User),
		books: make(map[string]book.Book),
		now:   time.Now,
	}
}

func (m *Memory) UserExists(_ context.Context, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[userID]
	return ok, nil
}

func (m *Memory) CreateUser(_ context.Context, u book.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return fmt.Errorf("registry: user %d already exists", u.ID)
	}
	m.users[u.ID] = book.User{ID: u.ID, DisplayName: u.DisplayName}
	return nil
}

func (m *Memory) EnsureUser(_ context.Context, u book.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return false, nil
	}
	m.users[u.ID] = book.User{ID: u.ID, DisplayName: u.DisplayName}
	return true, nil
}

func (m *Memory) UpsertBook(_ context.Context, b book.Book) (book.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[b.OwnerID]; !ok {
		return book.Book{}, ErrUserNotFound
	}
	now := m.now()
	if cur, ok := m.books[b.ID]; ok {
		cur.StorageKey = b.StorageKey
		cur.Filename = b.Filename
		cur.Title = b.Title
		cur.Format = b.Format
		cur.UpdatedAt = now
		m.books[b.ID] = cur
		return cur, nil
	}
	b.CurrentPage = 0
	b.IsRead = false
	b.CreatedAt, b.UpdatedAt = now, now
	m.books[b.ID] = b
	return b, nil
}

func (m *Memory) GetBook(_ context.Context, bookID string) (book.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[bookID]
	if !ok {
		return book.Book{}, book.ErrBookNotFound
	}
	return b, nil
}

func (m *Memory) RemoveBook(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.books, bookID)
	for id, u := range m.users {
		if u.CurrentBookID != nil && *u.CurrentBookID == bookID {
			u.CurrentBookID = nil
			m.users[id] = u
		}
	}
	return nil
}

func (m *Memory) SetCurrentBook(_ context.Context, userID int64, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	if _, ok := m.books[bookID]; !ok {
		return book.ErrBookNotFound
	}
	id := bookID
	u.CurrentBookID = &id
	m.users[userID] = u
	return nil
}

func (m *Memory) ClearCurrentBook(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.CurrentBookID = nil
		m.users[userID] = u
	}
	return nil
}

func (m *Memory) CurrentBookID(_ context.Context, userID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok || u.CurrentBookID == nil {
		return "", nil
	}
	return *u.CurrentBookID, nil
}

func (m *Memory) Page(_ context.Context, bookID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[bookID]
	if !ok {
		return 0, book.ErrBookNotFound
	}
	return b.CurrentPage, nil
}

func (m *Memory) SetPage(_ context.Context, bookID string, page int) error {
	if page < 0 {
		return fmt.Errorf("registry: negative page %d", page)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return book.ErrBookNotFound
	}
	b.CurrentPage = page
	b.UpdatedAt = m.now()
	m.books[bookID] = b
	return nil
}

func (m *Memory) IsRead(_ context.Context, bookID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[bookID]
	if !ok {
		return false, book.ErrBookNotFound
	}
	return b.IsRead, nil
}

func (m *Memory) MarkRead(_ context.Context, bookID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookID]
	if !ok {
		return book.ErrBookNotFound
	}
	b.IsRead = true
	b.UpdatedAt = m.now()
	m.books[bookID] = b
	return nil
}
