package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
)

// DefaultLongPollTimeout applies when telegram.longpoll_timeout_seconds is unset.
const DefaultLongPollTimeout = 10 * time.Second

// BuildPoller picks the update source: a webhook listener when run_mode is webhook,
// long polling otherwise.
func BuildPoller(tc coreconfig.TelegramConfig, wh coreconfig.WebhookConfig) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(tc.RunMode), coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(wh.Listen, strconv.Itoa(wh.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: wh.URL},
		}
	}
	return &tele.LongPoller{Timeout: longPollTimeout(tc)}
}

func longPollTimeout(tc coreconfig.TelegramConfig) time.Duration {
	if tc.LongPollTimeoutSeconds <= 0 {
		return DefaultLongPollTimeout
	}
	return time.Duration(tc.LongPollTimeoutSeconds) * time.Second
}
