package bot

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"
	"github.com/m3rciful/readerbot/core/telegram/keyboard"
	"github.com/m3rciful/readerbot/internal/book"
	"github.com/m3rciful/readerbot/internal/reader"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) onMenuCallback(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := senderID(c)

	switch action := callbacks.Payload(c); action {
	case "read":
		view, err := b.reader.OnReadRequest(ctx, userID)
		if err != nil {
			return b.alert(c, err)
		}
		_ = tghelpers.Answer(c, "", false)
		return sendPage(c, view)
	case "new":
		_ = tghelpers.Answer(c, uploadAlert, true)
		return tghelpers.SendText(c, uploadPrompt, keyboard.RemoveKeyboard())
	case "my":
		info, err := b.reader.CurrentBook(ctx, userID)
		if errors.Is(err, book.ErrNoActiveBook) {
			return tghelpers.Answer(c, "You have no books.", true)
		}
		if err != nil {
			return b.alert(c, err)
		}
		_ = tghelpers.Answer(c, "Current book: "+titleOf(info.Title), true)
		return tghelpers.SendMDV2(c, describeBook(info), keyboard.RemoveKeyboard())
	default:
		return tghelpers.Answer(c, "Unknown menu action: "+action, true)
	}
}

func (b *Bot) onNavCallback(c tele.Context) error {
	var dir reader.Direction
	switch payload := callbacks.Payload(c); payload {
	case "next":
		dir = reader.Next
	case "prev":
		dir = reader.Prev
	default:
		return tghelpers.Answer(c, "Unknown navigation command: "+payload, true)
	}

	view, err := b.reader.OnNavigate(tghelpers.BuildContext(c), senderID(c), dir)
	if err != nil {
		return b.alert(c, err)
	}
	_ = tghelpers.Answer(c, "", false)
	return sendPage(c, view)
}

func (b *Bot) onUnknownCallback(c tele.Context) error {
	logger.Warn(tghelpers.BuildContext(c), "bot", "callback.unknown",
		slog.String("cb_key", callbacks.Key(c)),
	)
	return tghelpers.Answer(c, "This button is no longer supported.", true)
}

// alert shows navigation boundaries and missing books as a popup; other errors
// get a chat message as well.
func (b *Bot) alert(c tele.Context, err error) error {
	switch {
	case errors.Is(err, book.ErrAlreadyAtStart):
		return tghelpers.Answer(c, atStartText, true)
	case errors.Is(err, book.ErrNoActiveBook), errors.Is(err, book.ErrNoActiveSession):
		return tghelpers.Answer(c, noBooksAlert, true)
	}
	_ = tghelpers.Answer(c, "", false)
	return b.fail(c, err)
}
