package bot

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/m3rciful/readerbot/core/telegram/format"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"
	"github.com/m3rciful/readerbot/core/telegram/keyboard"
	"github.com/m3rciful/readerbot/internal/book"
	"github.com/m3rciful/readerbot/internal/locker"
	"github.com/m3rciful/readerbot/internal/reader"

	tele "gopkg.in/telebot.v4"
)

// maxMessageRunes is the Telegram limit for one text message.
const maxMessageRunes = 4096

const (
	uploadPrompt    = "Please upload a book in fb2 or epub format"
	uploadAlert     = "Please upload a .fb2 or .epub file."
	noBooksText     = "You have no books. Please upload any."
	noBooksAlert    = "You have no books. Upload a book (.fb2 or .epub)."
	endOfBookText   = "You've reached the end of the book."
	atStartText     = "Already at the start of the book."
	untitled        = "(unknown title)"
	genericFailText = "Something went wrong. Please try again later."
)

// tooLargeError rejects a document above the upload cap.
type tooLargeError struct {
	limit int64
}

func (e *tooLargeError) Error() string {
	return fmt.Sprintf("document exceeds %d bytes", e.limit)
}

func (e *tooLargeError) Code() string { return "DOCUMENT_TOO_LARGE" }

// errorText maps a service outcome to the message shown to the user.
func errorText(err error) string {
	var tooLarge *tooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return fmt.Sprintf("The file is too large. The limit is %d MB.", max(tooLarge.limit>>20, 1))
	case errors.Is(err, book.ErrUnsupportedFormat):
		return "Unsupported file format. Please send .fb2 or .epub file."
	case errors.Is(err, book.ErrCorruptDocument):
		return "Could not read this book. The file looks damaged or has no text."
	case errors.Is(err, book.ErrBookUnavailable):
		return "Your book file is no longer available. Please send a .fb2 or .epub file."
	case errors.Is(err, book.ErrNoActiveBook):
		return noBooksText
	case errors.Is(err, book.ErrNoActiveSession):
		return noBooksAlert
	case errors.Is(err, book.ErrAlreadyAtStart):
		return atStartText
	case errors.Is(err, book.ErrPersistence):
		return "Could not save your progress. Please try again."
	case errors.Is(err, locker.ErrLockTimeout):
		return "Still busy with your previous request. Please try again."
	}
	return genericFailText
}

// expected reports outcomes that are part of normal use rather than failures.
func expected(err error) bool {
	var tooLarge *tooLargeError
	if errors.As(err, &tooLarge) {
		return true
	}
	if errors.Is(err, book.ErrPersistence) {
		return false
	}
	for _, target := range []error{
		book.ErrUnsupportedFormat,
		book.ErrCorruptDocument,
		book.ErrBookUnavailable,
		book.ErrNoActiveBook,
		book.ErrNoActiveSession,
		book.ErrAlreadyAtStart,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func titleOf(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitled
	}
	return title
}

func pageHeader(v reader.PageView) string {
	if v.Pages > 0 {
		return fmt.Sprintf("%s · page %d/%d", titleOf(v.Title), v.Page+1, v.Pages)
	}
	return titleOf(v.Title)
}

// renderPage returns the message texts for v.
func renderPage(v reader.PageView) []string {
	if v.PastEnd {
		return []string{endOfBookText}
	}
	text := pageHeader(v) + "\n\n" + v.Content
	if v.IsEnd {
		text += "\n\n" + endOfBookText
	}
	return splitMessage(text, maxMessageRunes)
}

// navKeyboard offers only the moves that are possible from v; nil when none are.
func navKeyboard(v reader.PageView) *tele.ReplyMarkup {
	var row []keyboard.InlineBtn
	if v.HasPrev {
		row = append(row, keyboard.InlineBtn{Text: "◀️ Prev", Unique: KeyNav, Data: "prev"})
	}
	if v.HasNext {
		row = append(row, keyboard.InlineBtn{Text: "Next ▶️", Unique: KeyNav, Data: "next"})
	}
	if len(row) == 0 {
		return nil
	}
	return keyboard.InlineButtonsRows(row)
}

// sendPage sends v in order; the keyboard goes with the last part.
func sendPage(c tele.Context, v reader.PageView) error {
	parts := renderPage(v)
	kb := navKeyboard(v)
	for i, part := range parts {
		var err error
		if i == len(parts)-1 && kb != nil {
			err = tghelpers.SendText(c, part, kb)
		} else {
			err = tghelpers.SendText(c, part)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// describeBook renders the /my reply in MarkdownV2.
func describeBook(info reader.BookInfo) string {
	var sb strings.Builder
	sb.WriteString(format.V2("Current book: ") + format.BoldV2(titleOf(info.Title)))
	switch {
	case info.Pages > 0:
		sb.WriteString(format.V2(fmt.Sprintf("\nPage %d of %d", min(info.CurrentPage+1, info.Pages), info.Pages)))
	default:
		sb.WriteString(format.V2(fmt.Sprintf("\nPage %d", info.CurrentPage+1)))
	}
	if info.IsRead {
		sb.WriteString(format.V2("\nFinished ✅"))
	}
	return sb.String()
}

// splitMessage cuts text into parts of at most limit runes, preferring paragraph
// breaks, then line breaks, then spaces.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := breakPoint(runes[:limit])
		if part := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace); part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
		for len(runes) > 0 && unicode.IsSpace(runes[0]) {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

func breakPoint(window []rune) int {
	for _, sep := range []string{"\n\n", "\n", " "} {
		if i := lastIndexRunes(window, []rune(sep)); i > len(window)/2 {
			return i + len([]rune(sep))
		}
	}
	return len(window)
}

func lastIndexRunes(s, sep []rune) int {
outer:
	for i := len(s) - len(sep); i >= 0; i-- {
		for j := range sep {
			if s[i+j] != sep[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
