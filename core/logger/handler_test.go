package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf io.Writer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "store")
	LogEvent(ctx, log, slog.LevelInfo, "store.update",
		slog.String("status", "ok"),
		slog.Int("attempt", 2),
	)
	require.NoError(t, aw.Close())

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	require.GreaterOrEqual(t, len(tokens), 6)
	expected := []string{"ts=", "level=INFO", "component=store", "event=store.update", "status=ok", "rid=rid-123"}
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
	assert.Contains(t, buf.String(), "chat_id=9")
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(handler).With("component", "events")
	LogEvent(ctx, log, slog.LevelError, "events.publish",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)
	require.NoError(t, aw.Close())

	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, "{"), line)
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"events"`, `"event":"events.publish"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.NotEqual(t, -1, idx, "missing %s in %s", pref, line)
		require.Greater(t, idx, pos, "%s out of order in %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := "123:456:789"
	for _, tc := range []struct {
		format  logFormat
		want    string
		withRaw bool
	}{
		{format: formatKV, want: "rid=" + CompactRID(rawRID)},
		{format: formatJSON, want: `"rid":"` + CompactRID(rawRID) + `"`, withRaw: true},
	} {
		buf := &bytes.Buffer{}
		handler, aw := newTestHandler(buf, tc.format)
		log := slog.New(handler).With("component", "tg")
		LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test", slog.String("status", "ok"))
		require.NoError(t, aw.Close())

		line := buf.String()
		assert.Contains(t, line, tc.want)
		if tc.withRaw {
			assert.Contains(t, line, `"rid_full":"`+rawRID+`"`)
		} else {
			assert.NotContains(t, line, "rid_full=")
		}
	}
}

func TestStructuredHandlerSessionMeta(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithUpdateMeta(WithRID(context.Background(), "5:42:7"), 5, 7, 42)
	ctx = WithSession(ctx, "expense", "amount")

	log := slog.New(handler).With("component", "store")
	log.InfoContext(ctx, "saved",
		slog.String("event", "store.save"),
		slog.String("step", "description"),
		slog.Duration("duration", 1500*time.Microsecond),
		slog.Any("amount", stringer("12.5")),
		slog.Group("doc", slog.Int("categories", 3)),
	)
	require.NoError(t, aw.Close())

	line := buf.String()
	assert.Contains(t, line, "action=expense")
	assert.Contains(t, line, "step=description", "call site attributes win over the context")
	assert.NotContains(t, line, "step=amount")
	assert.Contains(t, line, "duration_ms=2")
	assert.Contains(t, line, "amount=12.5")
	assert.Contains(t, line, "doc.categories=3")
	assert.Contains(t, line, "chat_id=42")
}

type stringer string

func (s stringer) String() string { return string(s) }

func TestStructuredHandlerDropsEmptyAndUnknownOutcome(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	slog.New(handler).Info("handler.handled",
		slog.String("status", "OK"),
		slog.String("outcome", "maybe"),
		slog.String("payload", "  "),
	)
	require.NoError(t, aw.Close())

	line := buf.String()
	assert.Contains(t, line, `"event":"handler.handled"`)
	assert.Contains(t, line, `"component":"app"`)
	assert.Contains(t, line, `"status":"ok"`)
	assert.NotContains(t, line, "outcome")
	assert.NotContains(t, line, "payload")
}

func TestParseKeyOrder(t *testing.T) {
	assert.Equal(t, defaultKeyOrder, parseKeyOrder(""))
	assert.Equal(t, defaultKeyOrder, parseKeyOrder("default"))
	assert.Equal(t, []string{"ts", "event"}, parseKeyOrder(" ts, ,event "))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var passed int
	for range 9 {
		if s.Allow() {
			passed++
		}
	}
	assert.Equal(t, 3, passed)

	s.Set(0, 0)
	assert.True(t, s.Allow())
	assert.True(t, s.Allow())
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"x/2":  {0, 0},
		"":     {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		assert.Equal(t, want, [2]int{num, den}, spec)
	}
}

type brokenSink struct{}

func (brokenSink) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestAsyncWriterKeepsHealthySinks(t *testing.T) {
	good := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{brokenSink{}, good}, 16)

	require.NoError(t, aw.Write([]byte("first\n")))
	require.NoError(t, aw.Write([]byte("second\n")))

	err := aw.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "first\nsecond\n", good.String())
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "ab", Sanitize("a\x00b\u200b"))
	assert.Equal(t, "abc…", SanitizeLimit("abcdef", 3))
	assert.Equal(t, "abc", SanitizeLimit("abc", 3))
	assert.Empty(t, SanitizeLimit("abc", 0))
}
