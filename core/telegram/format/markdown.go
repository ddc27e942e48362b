// Package format escapes user supplied text for Telegram parse modes.
package format

import (
	"fmt"
	"strings"
)

const (
	// MarkdownV1 is the legacy Markdown parse mode.
	MarkdownV1 = 1
	// MarkdownV2 is the MarkdownV2 parse mode.
	MarkdownV2 = 2
)

var (
	v1Replacer = replacerFor("_*`[")
	v2Replacer = replacerFor(`\_*[]()~` + "`" + `>#+-=|{}.!`)
)

func replacerFor(specials string) *strings.Replacer {
	pairs := make([]string, 0, 2*len(specials))
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// EscapeMarkdown escapes text for the given Markdown version.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return v1Replacer.Replace(text), nil
	case MarkdownV2:
		return v2Replacer.Replace(text), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// V2 escapes text for MarkdownV2.
func V2(text string) string {
	return v2Replacer.Replace(text)
}

// BoldV2 escapes text and wraps it in MarkdownV2 bold markers.
func BoldV2(text string) string {
	return "*" + V2(text) + "*"
}
