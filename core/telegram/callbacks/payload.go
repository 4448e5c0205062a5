package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/telegram/keyboard"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"
)

// Payload is a typed callback: Kind selects the registered handler and Value carries
// its argument. Telegram limits the encoded form to 64 bytes.
type Payload struct {
	Kind  string
	Value string
}

// MaxDataLen is the most callback data bytes Telegram accepts for one button.
const MaxDataLen = 64

// New builds a payload of the given kind.
func New(kind, value string) Payload {
	return Payload{Kind: kind, Value: value}
}

// Button returns an inline button description carrying the payload.
func (p Payload) Button(text string) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: text, Unique: p.Kind, Data: p.Value}
}

// Data is the callback data Telegram sends back when the button is pressed.
func (p Payload) Data() string {
	if p.Value == "" {
		return "\f" + p.Kind
	}
	return "\f" + p.Kind + "|" + p.Value
}

// Fits reports whether the encoded payload stays within MaxDataLen.
func (p Payload) Fits() bool {
	return len(p.Data()) <= MaxDataLen
}

// Decode reads the payload of a callback query.
func Decode(cb *tele.Callback) (Payload, bool) {
	kind, value := middleware.ParseCallback(cb)
	if kind == "" {
		return Payload{}, false
	}
	return Payload{Kind: kind, Value: strings.TrimSpace(value)}, true
}

// FromContext decodes the callback of the current update.
func FromContext(c tele.Context) (Payload, bool) {
	return Decode(c.Callback())
}
