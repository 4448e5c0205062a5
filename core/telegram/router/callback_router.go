package router

import (
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
)

// CallbackRoute dispatches inline button presses by their unique key. Keys the registry
// does not know go to its not-found handler. Handlers answer the callback query themselves.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		start := time.Now()
		key, _ := middleware.ParseCallback(c.Callback())
		fn, reason := callbackHandler(reg, key)
		attrs := []slog.Attr{slog.String("cb_key", key)}
		if reason != "" {
			attrs = append(attrs, slog.String("reason", reason))
		}
		return handleWithSummary(c, "callback."+handlerName(key), start, func() error {
			return fn(c)
		}, attrs...)
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

func callbackHandler(reg *tg.Registry, key string) (tele.HandlerFunc, string) {
	if h, ok := reg.GetCallback(key); ok {
		return h, ""
	}
	if h := reg.CallbackNotFound(); h != nil {
		return h, "not_found"
	}
	return func(c tele.Context) error { return c.Respond() }, "not_found"
}
