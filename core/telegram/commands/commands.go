// Package commands describes slash commands exposed by a bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly restricts the command to the configured admin.
	AdminOnly bool
	// Hidden keeps the command out of the Telegram menu.
	Hidden bool
	// Aliases are extra texts, with or without a slash, that trigger the command.
	// Reply keyboard labels are registered this way.
	Aliases []string
}

// Visible reports whether the command belongs in the public menu.
func (c Command) Visible() bool { return !c.Hidden && !c.AdminOnly }
