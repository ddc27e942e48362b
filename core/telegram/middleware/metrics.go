package middleware

import (
	"sync/atomic"

	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Metrics counts handled updates for the admin stats reply.
type Metrics struct {
	updates atomic.Uint64
	failed  atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Updates uint64
	Failed  uint64
}

// Middleware resets the per-update outbound counters and tallies the result.
func (m *Metrics) Middleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.ResetCounters(c)
		m.updates.Add(1)
		err := next(c)
		if err != nil {
			m.failed.Add(1)
		}
		return err
	}
}

// Snapshot returns the current totals.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{Updates: m.updates.Load(), Failed: m.failed.Load()}
}
