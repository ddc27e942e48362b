// Package router turns the registry into telebot routes with per-handler
// summary logging.
package router

import (
	"log/slog"

	tg "github.com/m3rciful/readerbot/core/telegram"
	"github.com/m3rciful/readerbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions customises callback routing.
type CallbackOptions struct {
	// NotFound overrides the registry fallback for unknown keys.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches every callback query by its key. The query is answered
// after the handler unless the handler already answered it.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key, payload := callbacks.Parse(c.Callback())
		extras := []slog.Attr{slog.String("cb_key", key), slog.String("payload", payload)}

		h, ok := reg.GetCallback(key)
		if !ok || h == nil {
			h = opts.NotFound
			if h == nil {
				h = reg.CallbackNotFound()
			}
			extras = append(extras, slog.String("cause", "not_found"))
		}
		err := handleWithSummary(c, "callback."+normalizeHandlerName(key), func() error {
			if h == nil {
				return nil
			}
			return h(c)
		}, extras...)
		_ = tghelpers.Answer(c, "", false)
		return err
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}
