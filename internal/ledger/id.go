package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ID identifies a record in the budget document. The web client writes numeric ids for
// most records but nothing forbids strings, so an ID remembers which form it was decoded
// from and encodes back the same way. IDs compare by their textual value.
type ID struct {
	value  string
	quoted bool
}

// NumericID builds an ID that encodes as a JSON number.
func NumericID(n int64) ID {
	return ID{value: strconv.FormatInt(n, 10)}
}

// StringID builds an ID that encodes as a JSON string.
func StringID(s string) ID {
	return ID{value: s, quoted: true}
}

// ParseID restores an ID from its textual form, e.g. a callback payload.
// Digit-only values become numeric IDs.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return ID{value: s}
	}
	return StringID(s)
}

// String returns the textual value of the id.
func (id ID) String() string { return id.value }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id.value == "" }

// Equal compares ids by value, ignoring the JSON form.
func (id ID) Equal(other ID) bool { return id.value == other.value }

// MarshalJSON implements json.Marshaler. Only an unset id encodes as null; an id read
// from "" stays an empty string.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == "" && !id.quoted {
		return []byte("null"), nil
	}
	if id.quoted {
		return json.Marshal(id.value)
	}
	return []byte(id.value), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*id = ID{}
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = StringID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("ledger: id must be a number or string: %w", err)
		}
		*id = ID{value: n.String()}
		return nil
	}
}

// IDSource hands out time-based ids: milliseconds since the epoch, strictly increasing
// within the process even when two entries are created in the same millisecond.
type IDSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDSource returns an IDSource reading the given clock; nil means time.Now.
func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

// Next returns the next id.
func (s *IDSource) Next() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now().UnixMilli()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return NumericID(n)
}
