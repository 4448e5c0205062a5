package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// Replies are sent synchronously from the handler goroutine so that messages of one chat
// leave in the order they were produced.

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	if len(opts) > 0 && opts[0] != nil {
		return c.Send(text, opts[0])
	}
	return c.Send(text)
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return SendText(c, text, markdown(markup))
}

// EditMD edits a message with Markdown parse mode and optional reply markup.
func EditMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, markdown(markup))
}

// SendMenuMD sends a Markdown message and returns it, so the caller can remember which
// message carries the inline menu.
func SendMenuMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) (*tele.Message, error) {
	msg, err := c.Bot().Send(c.Recipient(), text, markdown(markup))
	if err == nil {
		CountReply(c, len(markup) > 0 && markup[0] != nil)
	}
	return msg, err
}

// Toast answers the pending callback query with a short notification.
func Toast(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	if text == "" {
		return c.Respond()
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

func markdown(markup []*tele.ReplyMarkup) *tele.SendOptions {
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, DisableWebPagePreview: true}
	if len(markup) > 0 {
		opts.ReplyMarkup = markup[0]
	}
	return opts
}

const repliesKey = "reply_stats"

// ReplyStats counts what the handlers sent back for one update.
type ReplyStats struct {
	Messages int
	Keyboard bool
}

// TrackReplies starts counting replies for the update of c.
func TrackReplies(c tele.Context) {
	c.Set(repliesKey, &ReplyStats{})
}

// CountReply records one reply; keyboard marks that it carried a reply markup.
// It is a no-op for updates that are not tracked.
func CountReply(c tele.Context, keyboard bool) {
	if s, ok := c.Get(repliesKey).(*ReplyStats); ok {
		s.Messages++
		s.Keyboard = s.Keyboard || keyboard
	}
}

// Replies returns the counts recorded so far.
func Replies(c tele.Context) ReplyStats {
	if s, ok := c.Get(repliesKey).(*ReplyStats); ok {
		return *s
	}
	return ReplyStats{}
}
