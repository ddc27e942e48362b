package logger

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	ctxRID      contextKey = "rid"
	ctxUpdateID contextKey = "update_id"
	ctxUserID   contextKey = "user_id"
	ctxChatID   contextKey = "chat_id"
	ctxLogger   contextKey = "logger"
	ctxHandler  contextKey = "handler"
	ctxBookID   contextKey = "book_id"
)

func with(ctx context.Context, key contextKey, val any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, val)
}

func valueOf[T any](ctx context.Context, key contextKey) T {
	var zero T
	if ctx == nil {
		return zero
	}
	if v, ok := ctx.Value(key).(T); ok {
		return v
	}
	return zero
}

// WithLogger stores log in ctx. A nil log leaves ctx unchanged.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, ctxLogger, log)
}

// FromContext returns the logger stored in ctx or L.
func FromContext(ctx context.Context) *slog.Logger {
	if l := valueOf[*slog.Logger](ctx, ctxLogger); l != nil {
		return l
	}
	return L
}

// WithRID attaches a request correlation id.
func WithRID(ctx context.Context, rid string) context.Context { return with(ctx, ctxRID, rid) }

// RIDFrom returns the correlation id in ctx.
func RIDFrom(ctx context.Context) string { return valueOf[string](ctx, ctxRID) }

// WithUpdateMeta attaches the update, user and chat identifiers of a Telegram update.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	ctx = with(ctx, ctxUpdateID, updateID)
	ctx = with(ctx, ctxUserID, userID)
	return with(ctx, ctxChatID, chatID)
}

// UpdateIDFrom returns the update id in ctx.
func UpdateIDFrom(ctx context.Context) int { return valueOf[int](ctx, ctxUpdateID) }

// UserIDFrom returns the Telegram user id in ctx.
func UserIDFrom(ctx context.Context) int64 { return valueOf[int64](ctx, ctxUserID) }

// ChatIDFrom returns the chat id in ctx.
func ChatIDFrom(ctx context.Context) int64 { return valueOf[int64](ctx, ctxChatID) }

// WithHandler names the handler serving the current update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, ctxHandler, handler)
}

// HandlerFrom returns the handler name in ctx.
func HandlerFrom(ctx context.Context) string { return valueOf[string](ctx, ctxHandler) }

// WithBookID tags records emitted while serving a specific book.
func WithBookID(ctx context.Context, id string) context.Context {
	if id == "" {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return with(ctx, ctxBookID, id)
}

// BookIDFrom returns the book id in ctx.
func BookIDFrom(ctx context.Context) string { return valueOf[string](ctx, ctxBookID) }
