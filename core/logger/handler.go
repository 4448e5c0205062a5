package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeFormatMillis = "2006-01-02T15:04:05.000Z07:00"
)

type handlerConfig struct {
	level    slog.Leveler
	writer   *asyncWriter
	format   logFormat
	keyOrder []string
}

// structuredHandler writes every record as a single line, logfmt-style or JSON. Keys named
// in keyOrder come first and the rest follow sorted, so lines of one event line up.
type structuredHandler struct {
	cfg   handlerConfig
	pre   []field
	group string
}

type field struct {
	key string
	val any
}

// fields collects the attributes of one record.
type fields map[string]any

func newStructuredHandler(cfg handlerConfig) *structuredHandler {
	if cfg.level == nil {
		cfg.level = slog.LevelInfo
	}
	if cfg.keyOrder == nil {
		cfg.keyOrder = slices.Clone(defaultKeyOrder)
	}
	return &structuredHandler{cfg: cfg}
}

func (h *structuredHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.cfg.level.Level()
}

func (h *structuredHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg.writer == nil {
		return errors.New("logger: writer not initialized")
	}

	f := make(fields, 16)
	f["ts"] = r.Time.UTC().Truncate(time.Millisecond).Format(timeFormatMillis)
	f["level"] = r.Level.String()
	for _, p := range h.pre {
		f[p.key] = p.val
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.group, a)
		return true
	})
	for _, a := range MetaFrom(ctx).attrs() {
		f.fill(a.Key, a.Value.Any())
	}
	f.fill("event", r.Message)
	f.fill("event", "unknown")
	f.fill("component", "app")
	f.compactRID(h.cfg.format == formatJSON)
	f.normalize()

	line, err := f.render(h.cfg.format, h.cfg.keyOrder)
	if err != nil {
		return err
	}
	return h.cfg.writer.Write(append(line, '\n'))
}

func (h *structuredHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.pre = slices.Clip(h.pre)
	f := make(fields, len(attrs))
	for _, a := range attrs {
		f.add(h.group, a)
	}
	for k, v := range f {
		clone.pre = append(clone.pre, field{key: k, val: v})
	}
	return &clone
}

func (h *structuredHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = joinKey(h.group, name)
	return &clone
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	}
	return prefix + "." + key
}

// add flattens a into f, dotting group names into the keys.
func (f fields) add(prefix string, a slog.Attr) {
	key := joinKey(prefix, a.Key)
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if v.Kind() == slog.KindDuration {
		f[msKey(key)] = RoundMS(v.Duration()).Milliseconds()
		return
	}
	if val, ok := plain(v); ok {
		f[key] = val
	}
}

// msKey names a duration field after its unit: duration becomes duration_ms.
func msKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}

func plain(v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), true
		}
		return v.Uint64(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), true
	case slog.KindAny:
		switch x := v.Any().(type) {
		case nil:
			return nil, false
		case error:
			return x.Error(), true
		case fmt.Stringer:
			// Amounts and versions arrive here.
			return x.String(), true
		case string:
			return strings.TrimSpace(x), true
		default:
			return fmt.Sprint(x), true
		}
	default:
		return v.Any(), true
	}
}

// fill sets key unless the record already carries a non-empty value for it.
func (f fields) fill(key string, val any) {
	if cur, ok := f[key]; ok && cur != "" && cur != nil {
		return
	}
	if val == "" || val == nil {
		return
	}
	f[key] = val
}

// compactRID shortens the rid; JSON lines keep the original in rid_full.
func (f fields) compactRID(keepFull bool) {
	rid, ok := f["rid"].(string)
	if !ok || rid == "" {
		return
	}
	compact := CompactRID(rid)
	if compact == rid {
		return
	}
	if keepFull {
		f.fill("rid_full", rid)
	}
	f["rid"] = compact
}

// normalize lowercases known enumerations, drops unknown outcomes and empty values.
func (f fields) normalize() {
	if s, ok := f["status"].(string); ok {
		f["status"] = normalizeStatus(s)
	}
	if o, ok := f["outcome"].(string); ok {
		if normalized, valid := normalizeOutcome(o); valid {
			f["outcome"] = normalized
		} else {
			delete(f, "outcome")
		}
	}
	for k, v := range f {
		if v == nil || v == "" {
			delete(f, k)
		}
	}
}

func (f fields) keys(order []string) []string {
	keys := make([]string, 0, len(f))
	for _, k := range order {
		if _, ok := f[k]; ok {
			keys = append(keys, k)
		}
	}
	head := len(keys)
	for k := range f {
		if !slices.Contains(keys[:head], k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys[head:])
	return keys
}

func (f fields) render(format logFormat, order []string) ([]byte, error) {
	var b strings.Builder
	if format == formatJSON {
		b.WriteByte('{')
	}
	for i, k := range f.keys(order) {
		switch format {
		case formatJSON:
			data, err := json.Marshal(f[k])
			if err != nil {
				return nil, err
			}
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			b.Write(data)
		default:
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(kvValue(f[k]))
		}
	}
	if format == formatJSON {
		b.WriteByte('}')
	}
	return []byte(b.String()), nil
}

func kvValue(val any) string {
	s := fmt.Sprint(val)
	if strings.IndexFunc(s, needsQuote) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
