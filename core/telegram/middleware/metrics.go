package middleware

import (
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
)

// replyContext counts the messages a handler sends or edits for the handler summary.
type replyContext struct{ tele.Context }

func (r replyContext) Send(what any, opts ...any) error {
	err := r.Context.Send(what, opts...)
	if err == nil {
		tghelpers.CountReply(r, hasKeyboard(opts))
	}
	return err
}

// Edit counts as a reply: the wizards answer taps by editing their menu.
func (r replyContext) Edit(what any, opts ...any) error {
	err := r.Context.Edit(what, opts...)
	if err == nil {
		tghelpers.CountReply(r, hasKeyboard(opts))
	}
	return err
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware tracks how many replies the update produced and whether one of
// them carried a keyboard; read them with tghelpers.Replies.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.TrackReplies(c)
		return next(replyContext{Context: c})
	}
}
