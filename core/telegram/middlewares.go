package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
)

// MiddlewareOptions carries the handlers the shared middleware chain reports to.
type MiddlewareOptions struct {
	OnLimited  tele.HandlerFunc
	OnRejected tele.HandlerFunc
	// ChatLocker serializes updates per chat; nil creates a private one.
	ChatLocker *middleware.ChatLocker
}

// DefaultMiddlewares builds the shared middleware chain for bots: panic recovery, the
// user allow list, rate limiting, per-chat serialization, logging and reply metrics.
func DefaultMiddlewares(cfg *coreconfig.Config, opts MiddlewareOptions) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil && len(cfg.Telegram.AllowedUsers) > 0 {
		mws = append(mws, Middleware{
			Name: "access",
			Use: middleware.AccessMiddleware(middleware.AccessOptions{
				AllowedUsers: cfg.Telegram.AllowedUsers,
				OnReject:     opts.OnRejected,
			}),
		})
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			rl := middleware.RateLimitOptions{
				Interval:  interval,
				Exclude:   ex,
				OnLimited: opts.OnLimited,
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use:  middleware.RateLimitMiddleware(rl),
			})
		}
	}

	locker := opts.ChatLocker
	if locker == nil {
		locker = middleware.NewChatLocker()
	}
	mws = append(mws,
		Middleware{Name: "chat_lock", Use: middleware.ChatLockMiddleware(locker)},
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)

	return mws
}
