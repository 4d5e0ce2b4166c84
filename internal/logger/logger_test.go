package logger

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	fn()
	return buf.String()
}

func TestFormatFieldsSortsKeys(t *testing.T) {
	got := formatFields(Fields{"notes": 4, "input": "CM7", "duration_ms": int64(3), "ratio": 0.5})
	assert.Equal(t, "{duration_ms=3, input=CM7, notes=4, ratio=0.50}", got)
	assert.Equal(t, "", formatFields(nil))
}

func TestLevelsPrefixLines(t *testing.T) {
	out := captureLog(t, func() {
		Info("hello", Fields{"a": 1})
		Warn("careful", nil)
		Debug("details", Fields{"b": "x"})
		Error("failed", errors.New("boom"), Fields{"operation": "chord"})
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{
		"[INFO] hello {a=1}",
		"[WARN] careful ",
		"[DEBUG] details {b=x}",
		"[ERROR] failed: boom {operation=chord}",
	}, lines)
}

func TestLogResolution(t *testing.T) {
	out := captureLog(t, func() {
		LogResolution(t.Context(), "chord", "CM7", 4, 1500*time.Microsecond, nil)
	})
	assert.Contains(t, out, "[DEBUG] Resolution completed")
	assert.Contains(t, out, "duration_us=1500, input=CM7, notes=4, operation=chord")
}

func TestWithContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/api/v1/chords", nil)
	c.Set("request_id", "req-1")
	c.Set("user_id_str", "user-9")

	fields := WithContext(c)
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/api/v1/chords", fields["path"])
	assert.Equal(t, "user-9", fields["user_id"])
}
