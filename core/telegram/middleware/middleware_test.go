package middleware

import (
	"errors"
	"testing"
	"time"

	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func offlineBot(t *testing.T) *tele.Bot {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Token: "1:test", Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return b
}

func messageUpdate(id int, userID int64, doc bool) tele.Update {
	msg := &tele.Message{Sender: &tele.User{ID: userID}, Chat: &tele.Chat{ID: userID}, Text: "hi"}
	if doc {
		msg.Document = &tele.Document{FileName: "book.fb2"}
	}
	return tele.Update{ID: id, Message: msg}
}

func TestRateLimit(t *testing.T) {
	b := offlineBot(t)
	now := time.Unix(1_700_000_000, 0)
	var limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"document": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		Now:       func() time.Time { return now },
	})
	var handled int
	h := mw(func(tele.Context) error { handled++; return nil })

	run := func(u tele.Update) {
		if err := h(b.NewContext(u)); err != nil {
			t.Fatalf("handler: %v", err)
		}
	}
	run(messageUpdate(1, 10, false))
	run(messageUpdate(2, 10, false))
	run(messageUpdate(3, 11, false))
	run(messageUpdate(4, 10, true))
	now = now.Add(1500 * time.Millisecond)
	run(messageUpdate(5, 10, false))

	if handled != 4 || limited != 1 {
		t.Fatalf("handled=%d limited=%d, want 4 and 1", handled, limited)
	}
}

func TestUpdateKind(t *testing.T) {
	if k := UpdateKind(tele.Update{Callback: &tele.Callback{}}); k != "callback" {
		t.Fatalf("kind = %q", k)
	}
	if k := UpdateKind(messageUpdate(1, 1, true)); k != "document" {
		t.Fatalf("kind = %q", k)
	}
	if k := UpdateKind(messageUpdate(1, 1, false)); k != "message" {
		t.Fatalf("kind = %q", k)
	}
}

func TestAdminOnly(t *testing.T) {
	b := offlineBot(t)
	var rejected, passed int
	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 42, OnReject: func(tele.Context) error { rejected++; return nil }})
	h := mw(func(tele.Context) error { passed++; return nil })
	_ = h(b.NewContext(messageUpdate(1, 42, false)))
	_ = h(b.NewContext(messageUpdate(2, 7, false)))

	noAdmin := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { passed++; return nil })
	_ = noAdmin(b.NewContext(messageUpdate(3, 42, false)))

	if passed != 1 || rejected != 1 {
		t.Fatalf("passed=%d rejected=%d", passed, rejected)
	}
}

func TestRecoverAndMetrics(t *testing.T) {
	b := offlineBot(t)
	m := &Metrics{}
	h := RecoverMiddleware(m.Middleware(func(c tele.Context) error {
		tghelpers.CountOutbound(c, true)
		if c.Update().ID == 2 {
			panic("boom")
		}
		if c.Update().ID == 3 {
			return errors.New("fail")
		}
		return nil
	}))

	c := b.NewContext(messageUpdate(1, 1, false))
	if err := h(c); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if n, kb := tghelpers.Counters(c); n != 1 || !kb {
		t.Fatalf("counters = %d, %v", n, kb)
	}
	if err := h(b.NewContext(messageUpdate(2, 1, false))); err == nil {
		t.Fatal("expected error from recovered panic")
	}
	_ = h(b.NewContext(messageUpdate(3, 1, false)))

	snap := m.Snapshot()
	if snap.Updates != 3 || snap.Failed != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}
}
