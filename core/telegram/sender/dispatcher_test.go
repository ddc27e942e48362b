package sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestEnqueueKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3, QueueSize: 300})

	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := 0; i < 40; i++ {
		for _, chat := range []int64{7, -1001, 12} {
			err := d.Enqueue(context.Background(), chat, "send.text", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatalf("enqueue: %v", err)
			}
		}
	}
	d.Close()

	for chat, seq := range got {
		if len(seq) != 40 {
			t.Fatalf("chat %d: %d jobs ran", chat, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("chat %d: position %d ran job %d", chat, i, v)
			}
		}
	}
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	if err := d.Enqueue(context.Background(), 1, "a", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
}

func TestQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	block := func() error {
		close(started)
		<-release
		return nil
	}
	if err := d.Enqueue(context.Background(), 1, "block", "", block); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	<-started
	if err := d.Enqueue(context.Background(), 1, "fill", "", func() error { return nil }); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := d.Enqueue(context.Background(), 1, "overflow", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	close(release)
	d.Close()
}

func TestPermanentFailureIsCountedOnce(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls int
	err := d.Enqueue(context.Background(), 5, "send.text", "sendMessage", func() error {
		calls++
		return errors.New("bad request")
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 for a non retryable error", calls)
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("ErrorCount = %d, want 1", d.ErrorCount())
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": timeout`)
	got := sanitizeErrorMessage(err)
	if got != `Post "https://api.telegram.org/bot<redacted>/sendMessage": timeout` {
		t.Fatalf("got %q", got)
	}
}
