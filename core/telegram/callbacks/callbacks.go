// Package callbacks decodes inline button payloads.
//
// Buttons built with ReplyMarkup.Data carry "\f<unique>|<payload>" in the callback
// data. When no endpoint is registered for the unique part, telebot delivers the
// raw string to the generic OnCallback handler, so the router decodes it here.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse returns the callback key and payload of cb.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the callback key of the update in c.
func Key(c tele.Context) string {
	key, _ := Parse(c.Callback())
	return key
}

// Payload returns the callback payload of the update in c.
func Payload(c tele.Context) string {
	_, payload := Parse(c.Callback())
	return payload
}

// Encode builds the data string telebot produces for a button with unique and payload.
func Encode(unique, payload string) string {
	if payload == "" {
		return "\f" + unique
	}
	return "\f" + unique + "|" + payload
}
