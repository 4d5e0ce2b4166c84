package config

import (
	"os"
	"strconv"

	"github.com/Conceptual-Machines/magda-theory/internal/logger"
)

// Config holds the application configuration.
// The service is stateless: scales and chord types registered at runtime
// live for the lifetime of the process.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Observability
	SentryDSN string // Sentry DSN for error tracking

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	AuthMode string

	// Theory engine
	OriginOctave int // reference octave whose degree 1 is MIDI 60

	// MIDI export
	TempoBPM        int
	MIDIChannel     int
	DefaultVelocity int
}

func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		AuthMode:        getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		OriginOctave:    getEnvInt("ORIGIN_OCTAVE", 4),
		TempoBPM:        getEnvInt("TEMPO_BPM", 120),
		MIDIChannel:     getEnvInt("MIDI_CHANNEL", 0),
		DefaultVelocity: getEnvInt("DEFAULT_VELOCITY", 100),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger.Warn("Invalid integer in environment, using default", logger.Fields{
			"key":     key,
			"value":   value,
			"default": defaultValue,
		})
		return defaultValue
	}
	return n
}

// IsGatewayMode returns true if running behind the auth gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether production-only integrations should run.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
