package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender. Nil makes helpers synchronous.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// chatKey orders outbound messages: everything for one chat shares a shard.
func chatKey(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	d := globalDispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	err := d.Enqueue(ctx, chatKey(c), action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("op", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

func firstMarkup(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}

// SendText queues plain text to the current chat.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return send(c, "send.text", text, &tele.SendOptions{ReplyMarkup: firstMarkup(markup)})
}

// SendMDV2 queues MarkdownV2 text to the current chat. text must already be escaped.
func SendMDV2(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return send(c, "send.mdv2", text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdownV2,
		ReplyMarkup: firstMarkup(markup),
	})
}

func send(c tele.Context, action, text string, opts *tele.SendOptions) error {
	CountOutbound(c, opts.ReplyMarkup != nil)
	return sendAsync(c, action, "sendMessage", func() error {
		return c.Send(text, opts)
	})
}
