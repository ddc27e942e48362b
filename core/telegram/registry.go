package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry maps command names and callback keys to handlers.
type Registry struct {
	mu               sync.RWMutex
	commands         map[string]commands.Command
	callbacks        map[string]tele.HandlerFunc
	callbackNotFound tele.HandlerFunc
	textFallback     tele.HandlerFunc
}

// NewRegistry returns an empty registry whose unknown-callback fallback answers
// with a short notice.
func NewRegistry() *Registry {
	return &Registry{
		commands:  make(map[string]commands.Command),
		callbacks: make(map[string]tele.HandlerFunc),
		callbackNotFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "Unsupported action"})
		},
	}
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	ctx := context.Background()
	switch {
	case name == "" || cmd.Handler == nil || cmd.Description == "":
		logger.Warn(ctx, "tg.wire", "register.command.skip", slog.String("key", name), slog.String("cause", "invalid"))
		return fmt.Errorf("invalid command registration: %q", name)
	case !strings.HasPrefix(name, "/"):
		logger.Warn(ctx, "tg.wire", "register.command.skip", slog.String("key", name), slog.String("cause", "no_slash_prefix"))
		return fmt.Errorf("command %q must start with /", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[name]; exists {
		logger.Warn(ctx, "tg.wire", "register.command.duplicate", slog.String("key", name))
		return fmt.Errorf("command already registered: %s", name)
	}
	r.commands[name] = cmd
	return nil
}

// ListCommands returns commands sorted by name. visibleOnly drops hidden and
// admin-only entries, which is what the Telegram command menu shows.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]tele.Command, 0, len(r.commands))
	for name, meta := range r.commands {
		if visibleOnly && !meta.Visible() {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: meta.Description})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// LookupCommand resolves name or one of the aliases to the canonical command.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", commands.Command{}, false
	}
	key := name
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cmd, ok := r.commands[key]; ok {
		return key, cmd, true
	}
	for canonical, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if alias == name || alias == key {
				return canonical, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// Commands returns a snapshot of the registered commands.
func (r *Registry) Commands() map[string]commands.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]commands.Command, len(r.commands))
	for k, v := range r.commands {
		out[k] = v
	}
	return out
}

// RegisterCallback binds handler to the callback key.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if key == "" || handler == nil {
		logger.Warn(context.Background(), "tg.wire", "register.callback.skip",
			slog.String("cb_key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.Warn(context.Background(), "tg.wire", "register.callback.duplicate", slog.String("cb_key", key))
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the registered keys sorted.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetCallbackNotFound replaces the unknown-callback fallback.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.callbackNotFound = h
	r.mu.Unlock()
}

// CallbackNotFound returns the unknown-callback fallback.
func (r *Registry) CallbackNotFound() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.callbackNotFound
}

// SetTextFallback sets the handler for text that matches no command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.mu.Lock()
	r.textFallback = h
	r.mu.Unlock()
}

// TextFallback returns the text fallback.
func (r *Registry) TextFallback() tele.HandlerFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.textFallback
}

// CommandSetter is the part of *tele.Bot used by InitBotCommands.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// InitBotCommands publishes the visible commands to the Telegram menu.
func InitBotCommands(ctx context.Context, bot CommandSetter, reg *Registry) {
	list := reg.ListCommands(true)
	if err := bot.SetCommands(list); err != nil {
		logger.Error(ctx, "tg.wire", "commands.set", slog.String("status", "fail"), slog.String("err", err.Error()))
		return
	}
	logger.Info(ctx, "tg.wire", "commands.set",
		slog.String("status", "ok"),
		slog.Int("count", len(list)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
}
