// Package bot binds the reader service to Telegram: commands, menu and navigation
// callbacks, document uploads and page rendering.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/readerbot/core/buildinfo"
	"github.com/m3rciful/readerbot/core/logger"
	tg "github.com/m3rciful/readerbot/core/telegram"
	"github.com/m3rciful/readerbot/core/telegram/commands"
	"github.com/m3rciful/readerbot/core/telegram/format"
	tghelpers "github.com/m3rciful/readerbot/core/telegram/helpers"
	"github.com/m3rciful/readerbot/core/telegram/keyboard"
	"github.com/m3rciful/readerbot/core/telegram/middleware"
	"github.com/m3rciful/readerbot/core/telegram/router"
	"github.com/m3rciful/readerbot/core/telegram/sender"
	"github.com/m3rciful/readerbot/internal/book"
	"github.com/m3rciful/readerbot/internal/reader"

	tele "gopkg.in/telebot.v4"
)

// Callback keys.
const (
	KeyMenu = "menu"
	KeyNav  = "nav"
)

// MenuLabel is the persistent reply keyboard button that opens the menu.
const MenuLabel = "📚 Menu"

// Reader is the part of reader.Service used by the handlers.
type Reader interface {
	Start(ctx context.Context, userID int64, displayName string) (bool, error)
	OnUpload(ctx context.Context, up reader.Upload) (book.Book, error)
	OnReadRequest(ctx context.Context, userID int64) (reader.PageView, error)
	OnNavigate(ctx context.Context, userID int64, dir reader.Direction) (reader.PageView, error)
	CurrentBook(ctx context.Context, userID int64) (reader.BookInfo, error)
	Stats() reader.Stats
}

// Options configures New.
type Options struct {
	Reader Reader
	// MaxUploadBytes rejects larger documents before download; zero disables the cap.
	MaxUploadBytes int64
	// Metrics and Dispatcher feed /stats and may be nil.
	Metrics    *middleware.Metrics
	Dispatcher *sender.Dispatcher
}

// Bot holds the Telegram handlers.
type Bot struct {
	reader     Reader
	maxUpload  int64
	metrics    *middleware.Metrics
	dispatcher *sender.Dispatcher
}

// New returns a Bot.
func New(opts Options) (*Bot, error) {
	if opts.Reader == nil {
		return nil, errors.New("bot: nil reader")
	}
	return &Bot{
		reader:     opts.Reader,
		maxUpload:  opts.MaxUploadBytes,
		metrics:    opts.Metrics,
		dispatcher: opts.Dispatcher,
	}, nil
}

// Register adds commands, callbacks and the text fallback to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.onStart, Description: "Register and open the menu"}},
		{"/read", commands.Command{Handler: b.onRead, Description: "Continue reading the current book"}},
		{"/new", commands.Command{Handler: b.onNew, Description: "Upload a new book"}},
		{"/my", commands.Command{Handler: b.onMy, Description: "Show the current book"}},
		{"/menu", commands.Command{Handler: b.onMenu, Description: "Show the menu", Aliases: []string{MenuLabel}}},
		{"/stats", commands.Command{Handler: b.onStats, Description: "Runtime statistics", AdminOnly: true, Hidden: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	if err := reg.RegisterCallback(KeyMenu, b.onMenuCallback); err != nil {
		return err
	}
	if err := reg.RegisterCallback(KeyNav, b.onNavCallback); err != nil {
		return err
	}
	reg.SetCallbackNotFound(b.onUnknownCallback)
	reg.SetTextFallback(b.onStart)
	return nil
}

// Routes returns every route the bot serves.
func (b *Bot) Routes(reg *tg.Registry, adminID int64) []tg.Route {
	routes := router.CommandRoutes(reg, router.CommandRouteOptions{AdminID: adminID})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	return append(routes, router.TextRoutes(reg, router.TextOptions{
		AdminID:  adminID,
		Document: b.onDocument,
	})...)
}

func menuKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "📖 Read", Unique: KeyMenu, Data: "read"},
		{Text: "➕ New", Unique: KeyMenu, Data: "new"},
		{Text: "👤 My Book", Unique: KeyMenu, Data: "my"},
	})
}

func quickMenuKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons([]string{MenuLabel})
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func (b *Bot) onStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	created, err := b.reader.Start(ctx, senderID(c), displayName(c.Sender()))
	if err != nil {
		return b.fail(c, err)
	}
	if created {
		logger.Info(ctx, "bot", "user.created")
	}
	if err := tghelpers.SendText(c, "Choose an action:", menuKeyboard()); err != nil {
		return err
	}
	return tghelpers.SendText(c, "Use the menu button to come back here.", quickMenuKeyboard())
}

func (b *Bot) onMenu(c tele.Context) error {
	return tghelpers.SendText(c, "Choose an action:", menuKeyboard())
}

func (b *Bot) onRead(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	view, err := b.reader.OnReadRequest(ctx, senderID(c))
	if err != nil {
		return b.fail(c, err)
	}
	return sendPage(c, view)
}

func (b *Bot) onNew(c tele.Context) error {
	return tghelpers.SendText(c, uploadPrompt, keyboard.RemoveKeyboard())
}

func (b *Bot) onMy(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	info, err := b.reader.CurrentBook(ctx, senderID(c))
	if err != nil {
		return b.fail(c, err)
	}
	return tghelpers.SendMDV2(c, describeBook(info), keyboard.RemoveKeyboard())
}

func (b *Bot) onStats(c tele.Context) error {
	var sb strings.Builder
	sb.WriteString(format.BoldV2("Stats") + "\n")
	fmt.Fprintf(&sb, "Active sessions: %d\n", b.reader.Stats().ActiveSessions)
	if b.metrics != nil {
		snap := b.metrics.Snapshot()
		fmt.Fprintf(&sb, "Updates: %d\nFailed updates: %d\n", snap.Updates, snap.Failed)
	}
	if b.dispatcher != nil {
		fmt.Fprintf(&sb, "Send errors: %d\n", b.dispatcher.ErrorCount())
	}
	sb.WriteString(format.V2("Build: " + buildinfo.String()))
	return tghelpers.SendMDV2(c, sb.String())
}

// fail replies with the user facing text for err. Expected outcomes end the
// handler successfully; anything else is returned for the summary log.
func (b *Bot) fail(c tele.Context, err error) error {
	ctx := tghelpers.BuildContext(c)
	if sendErr := tghelpers.SendText(c, errorText(err), keyboard.RemoveKeyboard()); sendErr != nil {
		logger.Warn(ctx, "bot", "reply.fail", slog.String("err", sendErr.Error()))
	}
	if expected(err) {
		logger.Debug(ctx, "bot", "outcome", slog.String("err", err.Error()))
		return nil
	}
	return err
}
