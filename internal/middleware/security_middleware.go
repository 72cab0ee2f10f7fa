package middleware

import (
	"net/http"
	"strings"

	"canteen-backend/internal/auth"
	"canteen-backend/internal/config"
	"canteen-backend/internal/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware for downstream handlers.
const (
	CtxUserID   = "userID"
	CtxTenantID = "tenantID"
	CtxRole     = "role"
)

// AuthMiddleware validates the bearer token and stores the principal in
// the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header must start with Bearer"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(config.AppConfig.Server.JWTSecret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxTenantID, claims.TenantID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// RequireRole passes requests whose principal holds one of the allowed
// roles. The super-admin passes every guard.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == models.RoleSuperAdmin {
			c.Next()
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "You do not have permission to access this resource"})
		c.Abort()
	}
}

// TenantScope rejects requests whose :theaterId path parameter does not
// match the principal's tenant. Super-admins may cross tenants.
func TenantScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) == models.RoleSuperAdmin {
			c.Next()
			return
		}
		want := c.Param(param)
		if want != "" && want != c.GetString(CtxTenantID) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Resource belongs to another theater"})
			c.Abort()
			return
		}
		c.Next()
	}
}
