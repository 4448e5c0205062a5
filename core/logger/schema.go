package logger

import "strings"

var knownStatus = map[string]bool{
	"ok":           true,
	"fail":         true,
	"skip":         true,
	"retry":        true,
	"rate_limited": true,
	"cancelled":    true,
}

var knownOutcome = map[string]bool{
	"ok":           true,
	"fail":         true,
	"cancelled":    true,
	"rate_limited": true,
}

// normalizeStatus lowercases the known statuses. Other values pass through untouched.
func normalizeStatus(status string) string {
	if s := strings.ToLower(strings.TrimSpace(status)); knownStatus[s] {
		return s
	}
	return status
}

func normalizeOutcome(outcome string) (string, bool) {
	o := strings.ToLower(strings.TrimSpace(outcome))
	return o, knownOutcome[o]
}

// defaultKeyOrder puts correlation first, then the update, then the budget domain.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"cb_key",
	"outcome",
	"duration_ms",
	"messages",
	"kb",

	"action",
	"step",
	"category_id",
	"amount",
	"id",
	"backend",
	"version",
	"bytes",
	"attempt",
	"attempts",
	"categories",
	"transactions",
	"activities",
	"sessions",
	"swept",
	"exchange",
	"routing_key",

	"mode",
	"listen",
	"public_url",
	"db",
	"driver",
	"host",
	"port",
	"payload",
	"username",
	"lang",
	"err",
	"err_code",
	"cause",
}
