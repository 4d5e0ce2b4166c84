package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-theory/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/magda-theory/internal/api/middleware"
	"github.com/Conceptual-Machines/magda-theory/internal/arranger"
	"github.com/Conceptual-Machines/magda-theory/internal/config"
	"github.com/Conceptual-Machines/magda-theory/internal/metrics"
	"github.com/Conceptual-Machines/magda-theory/internal/services"
)

// SetupRouter wires the HTTP API. cloudwatch may be nil.
func SetupRouter(
	cfg *config.Config,
	service *services.NotationService,
	arr *arranger.Arranger,
	cloudwatch *metrics.Client,
	version string,
) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(cloudwatch))

	// CORS middleware
	router.Use(apimiddleware.CORS())

	// Health check
	healthHandler := handlers.NewHealthHandler(service)
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, service)
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	theoryHandler := handlers.NewTheoryHandler(service)
	arrangeHandler := handlers.NewArrangeHandler(arr, cfg)

	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		// Resolution (read-only)
		v1.POST("/chromatics", theoryHandler.Chromatics)
		v1.POST("/degrees", theoryHandler.Degrees)
		v1.POST("/notes", theoryHandler.Notes)
		v1.POST("/chords", theoryHandler.Chord)
		v1.POST("/nashville", theoryHandler.Nashville)

		// Registries
		v1.GET("/scales", theoryHandler.ListScales)
		v1.GET("/scales/:name", theoryHandler.GetScale)
		v1.GET("/chord-types", theoryHandler.ListChordTypes)
		v1.GET("/nashville-qualities", theoryHandler.ListNashvilleQualities)
		v1.GET("/origin", theoryHandler.GetOrigin)

		// Arrangement
		v1.POST("/arrange", arrangeHandler.Arrange)
		v1.GET("/rhythms", arrangeHandler.ListRhythms)
	}

	// Registry writes change state for every caller
	registry := router.Group("/api/v1", apimiddleware.RegistryAuth(cfg)...)
	{
		registry.POST("/scales", theoryHandler.AddScale)
		registry.POST("/chord-types", theoryHandler.AddChordType)
		registry.PUT("/origin", theoryHandler.SetOrigin)
	}

	return router
}
