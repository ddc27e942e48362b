// Package netutil classifies transport errors raised while talking to the Bot API.
package netutil

import (
	"context"
	"errors"
	"net"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether err is a transient dial or timeout failure.
// Cancellation by the caller is never retried.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && (dnsErr.IsTimeout || dnsErr.IsTemporary)
}

// RetryAfter extracts the wait demanded by a Bot API flood error.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}
