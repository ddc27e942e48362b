package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"encoded", &tele.Callback{Data: "\fnav|next"}, "nav", "next"},
		{"no payload", &tele.Callback{Data: "\fmenu"}, "menu", ""},
		{"payload with separator", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
		{"resolved by telebot", &tele.Callback{Unique: "nav", Data: "prev"}, "nav", "prev"},
		{"plain data", &tele.Callback{Data: "menu|read"}, "menu", "read"},
		{"escaped backslash is not a prefix", &tele.Callback{Data: `\fnav|next`}, `\fnav`, "next"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := Parse(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("Parse = (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, tc := range [][2]string{{"nav", "next"}, {"menu", ""}} {
		key, payload := Parse(&tele.Callback{Data: Encode(tc[0], tc[1])})
		if key != tc[0] || payload != tc[1] {
			t.Fatalf("round trip of %v = (%q, %q)", tc, key, payload)
		}
	}
}
