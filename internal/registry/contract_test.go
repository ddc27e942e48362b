package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/readerbot/internal/book"
)

func strptr(s string) *string { return &s }

func sampleBook(owner int64, id string) book.Book {
	return book.Book{
		ID:         id,
		OwnerID:    owner,
		StorageKey: book.StorageKey(owner, id, book.FormatFB2),
		Filename:   id + ".fb2",
		Title:      "Title " + id,
		Format:     book.FormatFB2,
	}
}

// runContract exercises behaviour every Registry implementation must share.
func runContract(t *testing.T, newRegistry func(t *testing.T) Registry) {
	t.Run("users", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()
		if ok, err := r.UserExists(ctx, 1); err != nil || ok {
			t.Fatalf("exists before create = %v, %v", ok, err)
		}
		if err := r.CreateUser(ctx, book.User{ID: 1, DisplayName: strptr("ann")}); err != nil {
			t.Fatalf("create: %v", err)
		}
		if ok, err := r.UserExists(ctx, 1); err != nil || !ok {
			t.Fatalf("exists after create = %v, %v", ok, err)
		}
		if created, err := r.EnsureUser(ctx, book.User{ID: 1}); err != nil || created {
			t.Fatalf("ensure existing = %v, %v", created, err)
		}
		if created, err := r.EnsureUser(ctx, book.User{ID: 2}); err != nil || !created {
			t.Fatalf("ensure new = %v, %v", created, err)
		}
	})

	t.Run("current book uses book identity", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()
		mustUser(t, r, 10)
		mustUser(t, r, 20)
		a := mustBook(t, r, sampleBook(10, "aaaa"))
		b := mustBook(t, r, sampleBook(20, "bbbb"))

		if id, err := r.CurrentBookID(ctx, 10); err != nil || id != "" {
			t.Fatalf("current before set = %q, %v", id, err)
		}
		if err := r.SetCurrentBook(ctx, 10, a.ID); err != nil {
			t.Fatalf("set current: %v", err)
		}
		if err := r.SetCurrentBook(ctx, 20, b.ID); err != nil {
			t.Fatalf("set current: %v", err)
		}
		if id, _ := r.CurrentBookID(ctx, 10); id != a.ID {
			t.Fatalf("current(10) = %q, want %q", id, a.ID)
		}
		if id, _ := r.CurrentBookID(ctx, 20); id != b.ID {
			t.Fatalf("current(20) = %q, want %q", id, b.ID)
		}

		if err := r.SetPage(ctx, a.ID, 3); err != nil {
			t.Fatalf("set page: %v", err)
		}
		if p, _ := r.Page(ctx, a.ID); p != 3 {
			t.Fatalf("page(a) = %d", p)
		}
		if p, _ := r.Page(ctx, b.ID); p != 0 {
			t.Fatalf("page(b) = %d, writes leaked across books", p)
		}
		if _, err := r.Page(ctx, "missing"); !errors.Is(err, book.ErrBookNotFound) {
			t.Fatalf("page(missing) err = %v", err)
		}
		if err := r.SetPage(ctx, "missing", 1); !errors.Is(err, book.ErrBookNotFound) {
			t.Fatalf("set page(missing) err = %v", err)
		}
		if err := r.SetCurrentBook(ctx, 10, "missing"); err == nil {
			t.Fatal("expected error for unknown book")
		}

		if err := r.ClearCurrentBook(ctx, 10); err != nil {
			t.Fatalf("clear: %v", err)
		}
		if id, _ := r.CurrentBookID(ctx, 10); id != "" {
			t.Fatalf("current after clear = %q", id)
		}
	})

	t.Run("upsert keeps position", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()
		mustUser(t, r, 1)
		b := mustBook(t, r, sampleBook(1, "cccc"))
		if b.CurrentPage != 0 || b.IsRead {
			t.Fatalf("fresh book = %+v", b)
		}
		if err := r.SetPage(ctx, b.ID, 5); err != nil {
			t.Fatalf("set page: %v", err)
		}
		if err := r.MarkRead(ctx, b.ID); err != nil {
			t.Fatalf("mark read: %v", err)
		}

		again := sampleBook(1, "cccc")
		again.Title = "Renamed"
		stored, err := r.UpsertBook(ctx, again)
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if stored.CurrentPage != 5 || !stored.IsRead || stored.Title != "Renamed" {
			t.Fatalf("re-upsert = %+v", stored)
		}
		got, err := r.GetBook(ctx, b.ID)
		if err != nil || got.Title != "Renamed" || got.Format != book.FormatFB2 {
			t.Fatalf("get = %+v, %v", got, err)
		}
		if read, err := r.IsRead(ctx, b.ID); err != nil || !read {
			t.Fatalf("is read = %v, %v", read, err)
		}
	})

	t.Run("remove clears current reference", func(t *testing.T) {
		r := newRegistry(t)
		ctx := context.Background()
		mustUser(t, r, 1)
		b := mustBook(t, r, sampleBook(1, "dddd"))
		if err := r.SetCurrentBook(ctx, 1, b.ID); err != nil {
			t.Fatalf("set current: %v", err)
		}
		if err := r.RemoveBook(ctx, b.ID); err != nil {
			t.Fatalf("remove: %v", err)
		}
		if _, err := r.GetBook(ctx, b.ID); !errors.Is(err, book.ErrBookNotFound) {
			t.Fatalf("get removed err = %v", err)
		}
		if id, _ := r.CurrentBookID(ctx, 1); id != "" {
			t.Fatalf("current after remove = %q", id)
		}
		if err := r.RemoveBook(ctx, b.ID); err != nil {
			t.Fatalf("second remove: %v", err)
		}
	})
}

func mustUser(t *testing.T, r Registry, id int64) {
	t.Helper()
	if _, err := r.EnsureUser(context.Background(), book.User{ID: id}); err != nil {
		t.Fatalf("ensure user %d: %v", id, err)
	}
}

func mustBook(t *testing.T, r Registry, b book.Book) book.Book {
	t.Helper()
	out, err := r.UpsertBook(context.Background(), b)
	if err != nil {
		t.Fatalf("upsert %s: %v", b.ID, err)
	}
	return out
}

func TestMemoryContract(t *testing.T) {
	runContract(t, func(*testing.T) Registry { return NewMemory() })
}

func TestMemoryUpsertRequiresOwner(t *testing.T) {
	r := NewMemory()
	if _, err := r.UpsertBook(context.Background(), sampleBook(99, "eeee")); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want user not found", err)
	}
}
