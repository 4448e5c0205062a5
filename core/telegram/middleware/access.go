package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/logger"
)

// AccessOptions defines who may talk to the bot.
type AccessOptions struct {
	// AllowedUsers lists Telegram user ids. Empty allows everyone.
	AllowedUsers []int64
	OnReject     tele.HandlerFunc
}

// AccessMiddleware drops updates from users outside the allow list.
func AccessMiddleware(opts AccessOptions) tele.MiddlewareFunc {
	allowed := make(map[int64]struct{}, len(opts.AllowedUsers))
	for _, id := range opts.AllowedUsers {
		allowed[id] = struct{}{}
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		if len(allowed) == 0 {
			return next
		}
		return func(c tele.Context) error {
			user := c.Sender()
			if user != nil {
				if _, ok := allowed[user.ID]; ok {
					return next(c)
				}
			}
			attrs := []any{slog.String("event", "tg.access_denied")}
			if user != nil {
				attrs = append(attrs, slog.Int64("user_id", user.ID))
			}
			logger.TG.Warn("access denied", attrs...)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
