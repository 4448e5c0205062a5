package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden keeps the command out of the Telegram command menu.
	Hidden bool
	// Aliases are alternative triggers matched against the whole message text, such as
	// "/summary" or a reply keyboard label.
	Aliases []string
}
