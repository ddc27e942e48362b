package router

import (
	"log/slog"

	tg "github.com/m3rciful/readerbot/core/telegram"
	"github.com/m3rciful/readerbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls text and document routing.
type TextOptions struct {
	// AdminID guards admin-only commands reached through an alias.
	AdminID     int64
	UnknownText tele.HandlerFunc
	// Document receives every uploaded file.
	Document tele.HandlerFunc
}

// TextRoutes routes plain text to commands by alias (reply keyboard labels),
// then to the registry fallback, and documents to opts.Document.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{AdminID: opts.AdminID})

	text := func(c tele.Context) error {
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = admin(h)
				}
				return handleWithSummary(c, normalizeHandlerName(key), func() error { return h(c) })
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", func() error { return fb(c) })
			}
		}
		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", func() error { return opts.UnknownText(c) })
		}
		return nil
	}

	document := func(c tele.Context) error {
		if opts.Document == nil {
			return handleWithSummary(c, "unexpected_document", func() error { return nil },
				slog.String("status", "skip"))
		}
		return handleWithSummary(c, "document", func() error { return opts.Document(c) })
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: text},
		{Endpoint: tele.OnDocument, Handler: document},
	}
}
