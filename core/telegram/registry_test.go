package telegram

import (
	"context"
	"testing"

	"github.com/m3rciful/readerbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

type fakeSetter struct{ got []tele.Command }

func (f *fakeSetter) SetCommands(opts ...any) error {
	f.got = opts[0].([]tele.Command)
	return nil
}

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"}))
	must(reg.RegisterCommand("/menu", commands.Command{Handler: noop, Description: "Menu", Aliases: []string{"📚 Menu"}}))
	must(reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "Stats", AdminOnly: true, Hidden: true}))

	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "again"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCommand("read", commands.Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("expected slash prefix error")
	}

	if key, _, ok := reg.LookupCommand("📚 Menu"); !ok || key != "/menu" {
		t.Fatalf("alias lookup = %q, %v", key, ok)
	}
	if key, _, ok := reg.LookupCommand("start"); !ok || key != "/start" {
		t.Fatalf("bare lookup = %q, %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("hello"); ok {
		t.Fatal("unexpected match")
	}

	setter := &fakeSetter{}
	InitBotCommands(context.Background(), setter, reg)
	if len(setter.got) != 2 || setter.got[0].Text != "menu" || setter.got[1].Text != "start" {
		t.Fatalf("menu commands = %+v", setter.got)
	}
	if all := reg.ListCommands(false); len(all) != 3 {
		t.Fatalf("all commands = %d", len(all))
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("nav", noop); err != nil {
		t.Fatal(err)
	}
	if err := reg.RegisterCallback("nav", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected invalid error")
	}
	if _, ok := reg.GetCallback("nav"); !ok {
		t.Fatal("nav not found")
	}
	if keys := reg.ListCallbacks(); len(keys) != 1 || keys[0] != "nav" {
		t.Fatalf("keys = %v", keys)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("expected default not-found handler")
	}
}

func TestBuildPoller(t *testing.T) {
	wh, ok := BuildPoller(PollerOptions{
		RunMode: "webhook",
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.com/hook", SecretToken: "s3"},
	}).(*tele.Webhook)
	if !ok {
		t.Fatal("expected webhook poller")
	}
	if wh.Listen != "0.0.0.0:8443" || wh.SecretToken != "s3" || wh.Endpoint.PublicURL != "https://bot.example.com/hook" {
		t.Fatalf("unexpected webhook %+v", wh)
	}
	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok || lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("unexpected long poller %+v", lp)
	}
}
