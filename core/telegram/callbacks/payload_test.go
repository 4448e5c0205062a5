package callbacks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/telegram/keyboard"
)

func TestPayloadRoundTrip(t *testing.T) {
	tests := []Payload{
		New("category", "17"),
		New("group", "food"),
		New("budget_category", "1715000000000"),
		New("cancel", ""),
	}
	for _, p := range tests {
		t.Run(p.Kind, func(t *testing.T) {
			got, ok := Decode(&tele.Callback{Data: p.Data()})
			require.True(t, ok)
			assert.Equal(t, p, got)
		})
	}
}

func TestPayloadButton(t *testing.T) {
	p := New("group", "~other")
	markup := keyboard.Grid([]keyboard.InlineBtn{p.Button("📁 Other")}, 1)

	require.Len(t, markup.InlineKeyboard, 1)
	btn := markup.InlineKeyboard[0][0]
	assert.Equal(t, "📁 Other", btn.Text)
	assert.Equal(t, "group", btn.Unique)
	assert.Equal(t, "~other", btn.Data)
}

func TestDecodeEmpty(t *testing.T) {
	_, ok := Decode(nil)
	assert.False(t, ok)

	_, ok = Decode(&tele.Callback{Data: ""})
	assert.False(t, ok)
}

func TestPayloadFits(t *testing.T) {
	assert.True(t, New("budget_category", "1715000000000").Fits())
	// "\f" + kind + "|" takes 10 bytes for "category".
	assert.True(t, New("category", strings.Repeat("x", 54)).Fits())
	assert.False(t, New("category", strings.Repeat("x", 55)).Fits())
	assert.False(t, New("group", strings.Repeat("é", 30)).Fits(), "the limit counts bytes")
}
