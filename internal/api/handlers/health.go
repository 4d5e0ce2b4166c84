package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-theory/internal/services"
)

type HealthHandler struct {
	service *services.NotationService
}

func NewHealthHandler(service *services.NotationService) *HealthHandler {
	return &HealthHandler{service: service}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	scales := len(h.service.ScaleNames())
	if scales == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "no scales registered",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"engine": gin.H{
			"scales": scales,
			"origin": h.service.Origin(),
		},
	})
}
