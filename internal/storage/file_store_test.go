package storage

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, "42/abc.fb2", []byte("first"), "application/x-fictionbook+xml"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "42/abc.fb2", []byte("second"), ""); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Get(ctx, "42/abc.fb2")
	if err != nil || string(got) != "second" {
		t.Fatalf("get = %q, %v", got, err)
	}
	if err := s.Delete(ctx, "42/abc.fb2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "42/abc.fb2"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Get(ctx, "42/abc.fb2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestFileStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "../x", "/etc/passwd", "a/../../x"} {
		if err := s.Put(context.Background(), key, []byte("x"), ""); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
