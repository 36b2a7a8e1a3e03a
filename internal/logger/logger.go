// Package logger writes structured JSON log lines with sensitive values masked.
package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Fields carries the key/value context of one log line
type Fields map[string]any

const masked = "******"

var sensitiveKeys = map[string]struct{}{
	"authorization": {},
	"token":         {},
	"bearertoken":   {},
	"bearer_token":  {},
	"jwtsecret":     {},
	"jwt_secret":    {},
	"password":      {},
	"dbpassword":    {},
	"db_password":   {},
	"dsn":           {},
	"dbconnstr":     {},
	"db_conn_str":   {},
}

var (
	mu   sync.RWMutex
	base = newLogger(os.Stdout)
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// SetOutput redirects all log lines to w
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(w)
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func Info(message string, fields Fields) {
	current().Info(message, attrs(fields)...)
}

func Warn(message string, fields Fields) {
	current().Warn(message, attrs(fields)...)
}

func Error(message string, err error, fields Fields) {
	withErr := Fields{}
	for k, v := range fields {
		withErr[k] = v
	}
	if err != nil {
		withErr["error"] = err.Error()
	}

	current().Error(message, attrs(withErr)...)
}

// SanitizePayload returns a JSON-shaped copy of payload with sensitive keys masked
func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func attrs(fields Fields) []any {
	if len(fields) == 0 {
		return nil
	}

	sanitized, ok := SanitizePayload(fields).(map[string]any)
	if !ok {
		return []any{slog.String("fields", "<unavailable>")}
	}

	out := make([]any, 0, len(sanitized))
	for k, v := range sanitized {
		out = append(out, slog.Any(k, v))
	}
	return out
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = masked
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "-", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
