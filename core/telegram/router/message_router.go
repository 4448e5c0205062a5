package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
)

// Conversation receives free text while a chat is in the middle of a multi-step flow.
type Conversation interface {
	Active(chatID int64) bool
	Handle(c tele.Context) error
}

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes builds the handler for plain text. Commands and their aliases (keyboard
// labels included) win over an active conversation, which wins over the fallbacks.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		name, fn := textHandler(c, conv, reg, opts)
		if fn == nil {
			return handleWithSummary(c, "unknown_text", start, func() error { return nil },
				slog.String("reason", "unhandled"))
		}
		return handleWithSummary(c, name, start, func() error { return fn(c) })
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
	}
}

func textHandler(c tele.Context, conv Conversation, reg *tg.Registry, opts TextOptions) (string, tele.HandlerFunc) {
	if reg != nil {
		if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
			return handlerName(key), cmd.Handler
		}
	}
	if conv != nil && c.Chat() != nil && conv.Active(c.Chat().ID) {
		return "conversation", conv.Handle
	}
	if reg != nil {
		if fb := reg.TextFallback(); fb != nil {
			return "fallback", fb
		}
	}
	return "unknown_text", opts.UnknownText
}
