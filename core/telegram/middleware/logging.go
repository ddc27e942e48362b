package middleware

import (
	"log/slog"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// LoggerMiddleware builds the request context (rid and update metadata) for
// downstream handlers and logs a sampled receipt line per update.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{slog.String("status", "ok")}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		key, payload := callbacks.Parse(upd.Callback)
		attrs = append(attrs,
			slog.String("cb_key", logger.SanitizeLimit(key, 128)),
			slog.String("payload", logger.SanitizeLimit(payload, 256)),
		)
	case upd.Message != nil && upd.Message.Document != nil:
		doc := upd.Message.Document
		attrs = append(attrs,
			slog.String("payload", logger.SanitizeLimit(doc.FileName, 256)),
			slog.Int64("bytes", int64(doc.FileSize)),
		)
	case upd.Message != nil:
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
	}
	return attrs
}
