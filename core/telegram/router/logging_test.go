package router

import (
	"errors"
	"fmt"
	"testing"
)

type codedErr struct{ code string }

func (e codedErr) Error() string { return "coded" }
func (e codedErr) Code() string  { return e.code }

type plainErr struct{}

func (*plainErr) Error() string { return "plain" }

func TestDeriveErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{codedErr{"already at start"}, "ALREADY_AT_START"},
		{fmt.Errorf("wrap: %w", codedErr{"NO_ACTIVE_BOOK"}), "NO_ACTIVE_BOOK"},
		{errors.Join(codedErr{"BOOK_UNAVAILABLE"}, errors.New("disk")), "BOOK_UNAVAILABLE"},
		{&plainErr{}, "PLAINERR"},
	}
	for _, tc := range cases {
		if got := deriveErrorCode(tc.err); got != tc.want {
			t.Fatalf("deriveErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestNormalizeHandlerName(t *testing.T) {
	cases := map[string]string{
		"/Start":     "start",
		" read more": "read_more",
		"":           "unknown",
		"/":          "unknown",
	}
	for in, want := range cases {
		if got := normalizeHandlerName(in); got != want {
			t.Fatalf("normalizeHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
