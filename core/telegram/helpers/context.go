// Package helpers bridges telebot contexts to the logger context and the
// asynchronous sender.
package helpers

import (
	"context"

	"github.com/m3rciful/readerbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey      = "logger_ctx"
	messagesKey = "messages"
	keyboardKey = "kb"
	answeredKey = "cb_answered"
)

// StoreContext keeps ctx on c for later helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the request context of c, creating it on first use with
// the correlation id and update metadata attached.
func BuildContext(c tele.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	upd := c.Update()
	ctx := logger.WithRID(context.Background(), logger.BuildRID(upd.ID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler names the handler in the stored context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := logger.WithHandler(BuildContext(c), handler)
	StoreContext(c, ctx)
	return ctx
}

// ResetCounters zeroes the outbound message counters of the update.
func ResetCounters(c tele.Context) {
	c.Set(messagesKey, 0)
	c.Set(keyboardKey, false)
}

// CountOutbound records one outbound message, optionally carrying a keyboard.
func CountOutbound(c tele.Context, withKeyboard bool) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if withKeyboard {
		c.Set(keyboardKey, true)
	}
}

// Counters returns the number of outbound messages and whether any had a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}

// Answer responds to the callback query of c once. Later calls are ignored.
func Answer(c tele.Context, text string, alert bool) error {
	if c.Callback() == nil {
		return nil
	}
	if done, _ := c.Get(answeredKey).(bool); done {
		return nil
	}
	c.Set(answeredKey, true)
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: alert})
}
