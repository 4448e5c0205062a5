package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
)

func TestBuildPollerLongPoll(t *testing.T) {
	p := BuildPoller(coreconfig.TelegramConfig{RunMode: "longpoll"}, coreconfig.WebhookConfig{})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, DefaultLongPollTimeout, lp.Timeout)

	p = BuildPoller(coreconfig.TelegramConfig{LongPollTimeoutSeconds: 25}, coreconfig.WebhookConfig{})
	assert.Equal(t, 25*time.Second, p.(*tele.LongPoller).Timeout)
}

func TestBuildPollerWebhook(t *testing.T) {
	p := BuildPoller(
		coreconfig.TelegramConfig{RunMode: " Webhook "},
		coreconfig.WebhookConfig{Listen: "0.0.0.0", Port: 8443, URL: "https://budget.example.com/hook"},
	)
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Equal(t, "0.0.0.0:8443", wh.Listen)
	assert.Equal(t, "https://budget.example.com/hook", wh.Endpoint.PublicURL)
}
