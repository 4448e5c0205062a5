package helpers

import (
	"context"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/logger"
)

// Keys under which the update context and its rid live in tele.Context.
const (
	contextKey = "logger_ctx"
	ridKey     = "rid"
)

type baseHolder struct{ ctx context.Context }

var base atomic.Pointer[baseHolder]

// SetBaseContext sets the parent of every context built for an update, so that handler
// work is cancelled on shutdown. Nil restores context.Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		base.Store(nil)
		return
	}
	base.Store(&baseHolder{ctx: ctx})
}

func BaseContext() context.Context {
	if h := base.Load(); h != nil {
		return h.ctx
	}
	return context.Background()
}

// StoreContext replaces the update context kept in c.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom returns the update context kept in c, if one was built.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(contextKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the update context of c, creating it on first use. A new context
// derives from BaseContext and carries the rid and the update, chat and user ids, so store
// and ledger lines written for the update correlate with the Telegram ones.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	m := updateMeta(c)
	c.Set(ridKey, m.RID)

	ctx := logger.WithRID(BaseContext(), m.RID)
	ctx = logger.WithUpdateMeta(ctx, m.UpdateID, m.UserID, m.ChatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

func updateMeta(c tele.Context) logger.Meta {
	m := logger.Meta{UpdateID: c.Update().ID}
	if chat := c.Chat(); chat != nil {
		m.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		m.UserID = user.ID
	}
	m.RID, _ = c.Get(ridKey).(string)
	if m.RID == "" {
		m.RID = logger.BuildRID(m.UpdateID, m.ChatID, m.UserID)
	}
	return m
}

// WithHandler names the handler serving c in its update context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
