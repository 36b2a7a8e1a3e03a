package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, write func()) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	write()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestInfo_WritesStructuredFields(t *testing.T) {
	line := captureLine(t, func() {
		Info("deposit applied", Fields{"vault_id": "v-1", "amount": "50.00"})
	})

	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "deposit applied", line["msg"])
	assert.Equal(t, "v-1", line["vault_id"])
	assert.Equal(t, "50.00", line["amount"])
}

func TestError_AddsErrorField(t *testing.T) {
	line := captureLine(t, func() {
		Error("publish failed", errors.New("connection refused"), Fields{"event": "deposit"})
	})

	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "connection refused", line["error"])
	assert.Equal(t, "deposit", line["event"])
}

func TestWarn_NilFields(t *testing.T) {
	line := captureLine(t, func() {
		Warn("redis not configured", nil)
	})

	assert.Equal(t, "WARN", line["level"])
}

func TestSanitizePayload_MasksSensitiveKeys(t *testing.T) {
	payload := map[string]any{
		"Authorization": "Bearer abc",
		"nested": map[string]any{
			"db-password": "secret",
			"owner_id":    "o-1",
		},
		"items": []any{map[string]any{"token": "t"}},
	}

	out, ok := SanitizePayload(payload).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, masked, out["Authorization"])
	nested := out["nested"].(map[string]any)
	assert.Equal(t, masked, nested["db-password"])
	assert.Equal(t, "o-1", nested["owner_id"])
	items := out["items"].([]any)
	assert.Equal(t, masked, items[0].(map[string]any)["token"])
}
