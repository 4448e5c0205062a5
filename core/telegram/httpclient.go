package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
)

const (
	// pollMargin is how long a getUpdates request may outlive the long poll timeout.
	pollMargin = 15 * time.Second

	retryAttempts = 3
	retryBackoff  = 2 * time.Second
)

// BuildTransport returns the pooled transport shared by the Telegram client and the
// document store's HTTP backends.
func BuildTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// BuildHTTPClient returns the Bot API client. Its timeout outlasts a long poll of
// pollTimeout, and failed dials and timeouts are retried with a linear backoff.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: max(pollTimeout, 0) + pollMargin,
		Transport: &retryTransport{
			base:     BuildTransport(),
			attempts: retryAttempts + 1,
			backoff:  retryBackoff,
		},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 1; ; attempt++ {
		try, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := t.base.RoundTrip(try)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt >= t.attempts || !shouldRetry(err) || (req.Body != nil && req.GetBody == nil) {
			return nil, lastErr
		}

		// The URL path carries the bot token; only its method segment is logged.
		logger.TG.LogAttrs(req.Context(), slog.LevelWarn, "bot api retry",
			slog.String("event", "tg.api.retry"),
			slog.String("status", "retry"),
			slog.String("method", path.Base(req.URL.Path)),
			slog.Int("attempt", attempt),
			slog.String("err", err.Error()),
		)
		if err := sleep(req.Context(), t.backoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
}

// rewind returns the request for the given attempt, with a fresh body on retries.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	try := req.Clone(req.Context())
	try.Body = body
	return try, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// shouldRetry reports whether err is a transient dial failure or timeout. Cancelled and
// expired request contexts are final.
func shouldRetry(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
