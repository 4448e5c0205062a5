// Package keyboard builds the reply and inline keyboards the bot attaches to messages.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn is one inline button: its label, the callback unique key and the payload.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
}

// ReplyButtons builds a resized reply keyboard from rows of labels, dropping empty labels
// and rows left empty.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	var keyboard []tele.Row
	for _, row := range rows {
		var labels []tele.Btn
		for _, label := range row {
			if label != "" {
				labels = append(labels, markup.Text(label))
			}
		}
		if len(labels) > 0 {
			keyboard = append(keyboard, markup.Row(labels...))
		}
	}
	markup.Reply(keyboard...)
	return markup
}

// Grid lays buttons out perRow to a row and appends footer as one last row.
// perRow <= 1 puts every button on its own row.
func Grid(buttons []InlineBtn, perRow int, footer ...InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	for _, row := range append(chunk(buttons, perRow), footer) {
		if len(row) == 0 {
			continue
		}
		inline := make([]tele.InlineButton, len(row))
		for i, b := range row {
			inline[i] = *markup.Data(b.Text, b.Unique, b.Data).Inline()
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, inline)
	}
	return markup
}

// chunk splits buttons into rows of up to n.
func chunk(buttons []InlineBtn, n int) [][]InlineBtn {
	n = max(n, 1)
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n+1)
	for i := 0; i < len(buttons); i += n {
		rows = append(rows, buttons[i:min(i+n, len(buttons))])
	}
	return rows
}
