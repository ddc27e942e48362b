package middleware

import (
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/readerbot/core/config"
	"github.com/m3rciful/readerbot/core/logger"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude holds update kinds (callback, message, document) that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Now is used by tests; nil means time.Now.
	Now func() time.Time
}

// UpdateKind classifies an update for rate limiting.
func UpdateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return coreconfig.UpdateCallback
	case upd.Message != nil && upd.Message.Document != nil:
		return coreconfig.UpdateDocument
	case upd.Message != nil:
		return coreconfig.UpdateMessage
	}
	return "other"
}

// RateLimitMiddleware drops updates arriving from the same user within Interval
// of the previous accepted one.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
		sweptAt  time.Time
	)
	allow := func(userID int64) bool {
		mu.Lock()
		defer mu.Unlock()
		t := now()
		if t.Sub(sweptAt) > time.Minute {
			for id, seen := range lastSeen {
				if t.Sub(seen) >= opts.Interval {
					delete(lastSeen, id)
				}
			}
			sweptAt = t
		}
		if last, ok := lastSeen[userID]; ok && t.Sub(last) < opts.Interval {
			return false
		}
		lastSeen[userID] = t
		return true
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}
			if allow(user.ID) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "rate_limit",
				slog.String("status", "rate_limited"),
				slog.String("op", kind),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
