package logger

import (
	"context"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

// Fields represents structured log fields
type Fields map[string]interface{}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	fields := Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}

	if userID := c.GetString("user_id_str"); userID != "" {
		fields["user_id"] = userID
	}

	return fields
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	log.Printf("[INFO] %s %s", msg, formatFields(fields))
	addBreadcrumb("info", msg, fields, sentry.LevelInfo)
}

// Error logs an error message with structured fields and sends to Sentry
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %s", msg, err, formatFields(fields))

	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			applyScope(scope, fields)
			hub.CaptureException(err)
		})
	}
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	log.Printf("[WARN] %s %s", msg, formatFields(fields))
	addBreadcrumb("warning", msg, fields, sentry.LevelWarning)
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	log.Printf("[DEBUG] %s %s", msg, formatFields(fields))
	addBreadcrumb("debug", msg, fields, sentry.LevelDebug)
}

// LogAPIRequest logs API request metrics
func LogAPIRequest(c *gin.Context, duration time.Duration, statusCode int, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["duration_ms"] = duration.Milliseconds()
	fields["status_code"] = statusCode
	fields["request_id"] = c.GetString("request_id")
	fields["method"] = c.Request.Method
	fields["path"] = c.Request.URL.Path
	fields["client_ip"] = c.ClientIP()

	Info("API request completed", fields)

	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     "http",
		Category: "api",
		Message:  "API request",
		Data:     convertFieldsToMap(fields),
		Level:    sentry.LevelInfo,
	})
}

// LogResolution logs one engine call: which operation ran, on what input,
// and how many MIDI notes came back. The breadcrumb goes to the request's
// hub when ctx carries one.
func LogResolution(ctx context.Context, operation, input string, notes int, duration time.Duration, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["operation"] = operation
	fields["input"] = input
	fields["notes"] = notes
	fields["duration_us"] = duration.Microseconds()

	log.Printf("[DEBUG] Resolution completed %s", formatFields(fields))

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() != nil {
		hub.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     "debug",
			Category: "theory",
			Message:  operation + " " + input,
			Data:     convertFieldsToMap(fields),
			Level:    sentry.LevelDebug,
		}, nil)
	}
}

// LogToSentry sends a log message directly to Sentry as an event
func LogToSentry(level sentry.Level, msg string, fields Fields) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetLevel(level)
			applyScope(scope, fields)
			hub.CaptureMessage(msg)
		})
	}
}

func addBreadcrumb(kind, msg string, fields Fields, level sentry.Level) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     kind,
			Category: "log",
			Message:  msg,
			Data:     convertFieldsToMap(fields),
			Level:    level,
		})
	}
}

func applyScope(scope *sentry.Scope, fields Fields) {
	for key, value := range fields {
		scope.SetContext(key, map[string]interface{}{
			"value": value,
		})
	}

	// Tags for filtering in Sentry
	for _, tag := range []string{"request_id", "operation"} {
		if v, ok := fields[tag].(string); ok {
			scope.SetTag(tag, v)
		}
	}
}

// formatFields renders fields as {k=v, ...} with keys in sorted order.
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, k := range slices.Sorted(maps.Keys(fields)) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(formatValue(fields[k]))
	}
	b.WriteString("}")
	return b.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func convertFieldsToMap(fields Fields) map[string]interface{} {
	result := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		result[k] = v
	}
	return result
}
