package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/budgetbot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestLookupCommand(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/analytics", commands.Command{
		Handler:     noop,
		Description: "Spending analytics",
		Aliases:     []string{"/summary", "📉 Analytics"},
	}))

	cases := map[string]bool{
		"/analytics":             true,
		"/analytics@budget_bot":  true,
		"/analytics extra words": true,
		"/summary":               true,
		"/summary@budget_bot":    true,
		"📉 Analytics":            true,
		"  📉 Analytics  ":        true,
		"📉 Analytics please":     false,
		"/unknown":               false,
		"":                       false,
	}
	for text, want := range cases {
		key, _, ok := reg.LookupCommand(text)
		assert.Equal(t, want, ok, text)
		if want {
			assert.Equal(t, "/analytics", key, text)
		}
	}
}

func TestRegisterCommandRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"}), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.RegisterCommand("/nodesc", commands.Command{Handler: noop}), ErrInvalidRegistration)
	require.NoError(t, reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Help"}))
	assert.ErrorIs(t, reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "Duplicate"}), ErrDuplicate)

	require.Len(t, reg.Commands(), 1)
	assert.Equal(t, "Help", reg.Commands()["/help"].Description)
}

func TestRegisterCommandRejectsTakenAlias(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/analytics", commands.Command{
		Handler: noop, Description: "Analytics", Aliases: []string{"/summary"},
	}))
	assert.ErrorIs(t, reg.RegisterCommand("/summary", commands.Command{Handler: noop, Description: "Summary"}), ErrDuplicate)
	assert.ErrorIs(t, reg.RegisterCommand("/report", commands.Command{
		Handler: noop, Description: "Report", Aliases: []string{"/analytics"},
	}), ErrDuplicate)

	_, ok := reg.Commands()["/report"]
	assert.False(t, ok)
	key, _, ok := reg.LookupCommand("/summary")
	require.True(t, ok)
	assert.Equal(t, "/analytics", key)
}

func TestListCommandsHidesHidden(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"})
	reg.RegisterCommand("/app", commands.Command{Handler: noop, Description: "App", Hidden: true})

	assert.Len(t, reg.ListCommands(false), 2)
	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "/start", visible[0].Text)
}

func TestRegisterCallback(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallback("category", noop))
	assert.ErrorIs(t, reg.RegisterCallback("category", noop), ErrDuplicate)
	assert.ErrorIs(t, reg.RegisterCallback("", noop), ErrInvalidRegistration)
	assert.ErrorIs(t, reg.RegisterCallback("group", nil), ErrInvalidRegistration)

	_, ok := reg.GetCallback("category")
	assert.True(t, ok)
	assert.Equal(t, []string{"category"}, reg.ListCallbacks())
}

func TestFallbacks(t *testing.T) {
	reg := NewRegistry()
	assert.NotNil(t, reg.CallbackNotFound())
	assert.Nil(t, reg.TextFallback())

	reg.SetCallbackNotFound(nil)
	assert.NotNil(t, reg.CallbackNotFound())

	reg.SetTextFallback(noop)
	assert.NotNil(t, reg.TextFallback())
}
