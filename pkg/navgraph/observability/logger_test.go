package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Nil(t, EnrichLogger(nil, 1, "api"))
		LogNavigationStart(nil, 1, "api", "/a")
		LogNavigationComplete(nil, 1, "/a", 1)
		LogNavigationCancel(nil, 1, "guard")
		LogHookComplete(nil, "a", "loading", time.Millisecond)
		LogNavigationError(nil, 1, errors.New("x"), 1)
		LogPhase(nil, 1, "canLoad")
		LogHookError(nil, "home", "canLoad", errors.New("x"))
		LogJournalError(nil, "append", errors.New("x"))
	})
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := newJSONLogger()
	EnrichLogger(logger, 42, "popstate").Info("hello")

	rec := lastRecord(t, buf)
	assert.Equal(t, float64(42), rec["transition_id"])
	assert.Equal(t, "popstate", rec["trigger"])
}

func TestLogNavigationLifecycle(t *testing.T) {
	logger, buf := newJSONLogger()

	LogNavigationStart(logger, 3, "api", "/users/1")
	rec := lastRecord(t, buf)
	assert.Equal(t, "navigation starting", rec["msg"])
	assert.Equal(t, "/users/1", rec["url"])
	assert.Equal(t, "INFO", rec["level"])

	LogNavigationCancel(logger, 3, "guard")
	rec = lastRecord(t, buf)
	assert.Equal(t, "guard", rec["reason"])

	LogNavigationError(logger, 3, errors.New("boom"), 12.5)
	rec = lastRecord(t, buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, 12.5, rec["duration_ms"])

	LogPhase(logger, 3, "swap")
	rec = lastRecord(t, buf)
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "swap", rec["phase"])
}

func TestLogHookAndJournalErrors(t *testing.T) {
	logger, buf := newJSONLogger()

	LogHookError(logger, "settings", "canUnload", errors.New("denied"))
	rec := lastRecord(t, buf)
	assert.Equal(t, "settings", rec["component"])
	assert.Equal(t, "canUnload", rec["hook"])

	LogHookComplete(logger, "settings", "loading", 1500*time.Microsecond)
	rec = lastRecord(t, buf)
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, "loading", rec["hook"])
	assert.Equal(t, 1.5, rec["duration_ms"])

	LogJournalError(logger, "append", errors.New("disk full"))
	rec = lastRecord(t, buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "append", rec["operation"])
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), 5*time.Millisecond)
}
