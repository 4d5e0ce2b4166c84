package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Conceptual-Machines/magda-theory/internal/api"
	"github.com/Conceptual-Machines/magda-theory/internal/arranger"
	"github.com/Conceptual-Machines/magda-theory/internal/config"
	"github.com/Conceptual-Machines/magda-theory/internal/metrics"
	"github.com/Conceptual-Machines/magda-theory/internal/services"
	"github.com/Conceptual-Machines/magda-theory/internal/theory"
)

const (
	sentryFlushTimeout = 2 * time.Second
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "magda-theory@" + releaseVersion,
			EnableTracing:    true, // spans per resolution
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            !cfg.IsProduction(),
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	// CloudWatch metrics (production only)
	cloudwatch, err := metrics.NewClient(context.Background(), cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics disabled: %v", err)
	}

	// Theory engine
	engine := theory.New()
	engine.SetOriginOctave(cfg.OriginOctave)
	service := services.NewNotationService(engine, cloudwatch)
	arr := arranger.New(service, cfg.DefaultVelocity)
	log.Printf("🎹 Theory engine ready: %d scales, %d chord types, origin octave %d",
		len(engine.ScaleNames()), len(engine.ChordTypes()), cfg.OriginOctave)

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(cfg, service, arr, cloudwatch, GetVersion())

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
