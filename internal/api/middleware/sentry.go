package middleware

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-theory/internal/logger"
	"github.com/Conceptual-Machines/magda-theory/internal/metrics"
)

const sentryFlushTimeout = 2 * time.Second

var sentryMetrics = metrics.NewSentryMetrics()

// RequestTracking tags each request with an X-Request-ID, logs its outcome
// and records it in Sentry and CloudWatch. A nil cloudwatch client records
// nothing.
func RequestTracking(cloudwatch *metrics.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		endpoint := routeOf(c)
		logRequest(status, logger.Fields{
			"request_id":  requestID,
			"duration_ms": elapsed.Milliseconds(),
			"status_code": status,
			"method":      c.Request.Method,
			"endpoint":    endpoint,
		})

		sentryMetrics.RecordAPIRequest(c.Request.Context(), endpoint, status, elapsed)
		cloudwatch.RecordAPIRequest(endpoint, status, elapsed)
	}
}

// routeOf returns the matched route pattern, e.g. /api/v1/scales/:name, or
// the raw path when no route matched.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

func logRequest(status int, fields logger.Fields) {
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed with server error", nil, fields)
	case status >= http.StatusBadRequest:
		logger.Warn("Request rejected", fields)
	default:
		logger.Info("Request completed", fields)
	}
}

// SentryMiddleware binds a Sentry hub to each request.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
		Timeout: sentryFlushTimeout,
	})
}

// RecoverWithSentry turns a handler panic into a 500 carrying the request ID
// and reports it on the request's hub.
func RecoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			requestID := c.GetString("request_id")

			if hub := sentrygin.GetHubFromContext(c); hub != nil {
				hub.WithScope(func(scope *sentry.Scope) {
					scope.SetRequest(c.Request)
					scope.SetTag("route", routeOf(c))
					scope.SetTag("request_id", requestID)
					if userID := c.GetString("user_id_str"); userID != "" {
						scope.SetUser(sentry.User{ID: userID})
					}
					hub.RecoverWithContext(c.Request.Context(), recovered)
				})
			}

			logger.Error("Panic recovered", nil, logger.Fields{
				"request_id": requestID,
				"panic":      recovered,
				"endpoint":   routeOf(c),
			})
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":      "Internal server error",
				"request_id": requestID,
			})
		}()
		c.Next()
	}
}
