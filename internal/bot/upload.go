package bot

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/m3rciful/readerbot/core/logger"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"
	"github.com/m3rciful/readerbot/core/telegram/keyboard"
	"github.com/m3rciful/readerbot/internal/book"
	"github.com/m3rciful/readerbot/internal/reader"

	tele "gopkg.in/telebot.v4"
)

// onDocument downloads an uploaded book and makes it the current one. The format
// and size are checked before anything is downloaded.
func (b *Bot) onDocument(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return tghelpers.SendText(c, "Please send a book file (.fb2 or .epub).", keyboard.RemoveKeyboard())
	}
	doc := msg.Document
	ctx := tghelpers.BuildContext(c)

	if _, err := book.DetectFormat(doc.FileName, doc.MIME); err != nil {
		return b.fail(c, err)
	}
	if b.maxUpload > 0 && int64(doc.FileSize) > b.maxUpload {
		return b.fail(c, &tooLargeError{limit: b.maxUpload})
	}

	data, err := b.download(c, doc)
	if err != nil {
		return b.fail(c, err)
	}

	stored, err := b.reader.OnUpload(ctx, reader.Upload{
		UserID:      senderID(c),
		DisplayName: displayName(c.Sender()),
		Filename:    doc.FileName,
		MIMEType:    doc.MIME,
		Data:        data,
	})
	if err != nil {
		return b.fail(c, err)
	}
	logger.Info(logger.WithBookID(ctx, stored.ID), "bot", "upload.accepted",
		slog.String("format", string(stored.Format)),
		slog.Int("bytes", len(data)),
	)

	text := fmt.Sprintf("File received: %s. Use 'Read' from menu to start reading.", titleOf(stored.Title))
	if stored.CurrentPage > 0 {
		text += fmt.Sprintf(" You will continue from page %d.", stored.CurrentPage+1)
	}
	return tghelpers.SendText(c, text, menuKeyboard())
}

func (b *Bot) download(c tele.Context, doc *tele.Document) ([]byte, error) {
	rc, err := c.Bot().File(&doc.File)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	defer rc.Close()

	r := io.Reader(rc)
	if b.maxUpload > 0 {
		r = io.LimitReader(rc, b.maxUpload+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if b.maxUpload > 0 && int64(len(data)) > b.maxUpload {
		return nil, &tooLargeError{limit: b.maxUpload}
	}
	return data, nil
}
