package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // spans are dropped when no client is bound
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordResolution records an engine call as a child span of the request
// transaction.
func (m *SentryMetrics) RecordResolution(ctx context.Context, operation, input string, notes int, err error) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "theory."+operation)
	defer span.Finish()

	span.SetTag("operation", operation)
	span.SetData("input", input)
	span.SetData("notes", notes)

	if err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		span.SetData("error", err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}

	span.Description = fmt.Sprintf("%s %s", operation, input)
}

// RecordArrangement tags the request transaction with the size of a
// rendered arrangement.
func (m *SentryMetrics) RecordArrangement(ctx context.Context, actions, events int, duration time.Duration) {
	if !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("arrange.actions", fmt.Sprintf("%d", actions))
		transaction.SetData("arrange.events", events)
	}

	span := sentry.StartSpan(ctx, "arranger.build")
	defer span.Finish()

	span.SetData("actions", actions)
	span.SetData("events", events)
	span.SetData("duration_ms", duration.Milliseconds())
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Arrangement: %d actions", actions)
}
