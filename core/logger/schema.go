package logger

import "strings"

// Canonical level names.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

var levelNames = map[string]string{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

// Closed vocabularies. Values outside them are kept for status and dropped for
// cache and outcome.
var (
	statusValues  = set("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	cacheValues   = set("hit", "miss", "rebuild")
	outcomeValues = set("ok", "fail", "cancelled", "rate_limited")
)

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func normalizeLevel(level string) string {
	if level == "" {
		return LevelInfo
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// normalizeEnum lowercases v and reports whether it belongs to allowed.
func normalizeEnum(v string, allowed map[string]struct{}) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	_, ok := allowed[v]
	return v, ok && v != ""
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"outcome",
	"duration_ms",
	"book_id",
	"format",
	"title",
	"page",
	"pages",
	"count",
	"bytes",
	"cache",
	"backend",
	"key",
	"parts",
	"payload",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
	"queue",
	"shard",
}
