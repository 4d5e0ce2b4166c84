package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-theory/internal/config"
)

const (
	headerUserID    = "X-User-ID"
	headerUserEmail = "X-User-Email"
	headerUserRole  = "X-User-Role"

	roleAdmin = "admin"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID, X-User-Email, X-User-Role).
// The gateway in front of the API validates credentials; this should ONLY be
// used with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(headerUserID)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id_str", userID)
		c.Set("user_email", c.GetHeader(headerUserEmail))
		c.Set("user_role", c.GetHeader(headerUserRole))
		c.Next()
	}
}

// AdminRequired ensures the gateway user has the admin role.
// Must run after GatewayAuth.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := GetUserRoleFromGateway(c)
		if role != roleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RegistryAuth guards routes that change the shared scale and chord
// registries or the origin: admins only in gateway mode, open otherwise.
func RegistryAuth(cfg *config.Config) []gin.HandlerFunc {
	if cfg.IsGatewayMode() {
		return []gin.HandlerFunc{GatewayAuth(), AdminRequired()}
	}
	return []gin.HandlerFunc{NoAuth()}
}

// GetUserIDFromGateway retrieves the user ID set by GatewayAuth or NoAuth.
func GetUserIDFromGateway(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id_str")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}

// GetUserRoleFromGateway retrieves the user role from gateway headers
func GetUserRoleFromGateway(c *gin.Context) (string, bool) {
	role, exists := c.Get("user_role")
	if !exists {
		return "", false
	}
	r, ok := role.(string)
	return r, ok
}
