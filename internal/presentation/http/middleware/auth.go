package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	infraRepo "github.com/caredesk/pharmacy-api/internal/infrastructure/repository"
	"github.com/caredesk/pharmacy-api/internal/presentation/http/dto/response"
	"github.com/caredesk/pharmacy-api/pkg/utils"
)

// AuthMiddleware creates a JWT tenant authentication middleware. Every
// request below it carries a tenant ID both in the Gin context and on the
// request context, where the repository layer scopes its queries by it.
func AuthMiddleware(tokenManager *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := tokenManager.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("tenant_id", claims.TenantID)
		c.Set("actor", claims.Actor)
		c.Request = c.Request.WithContext(infraRepo.WithTenant(c.Request.Context(), claims.TenantID))

		c.Next()
	}
}

// tenantFromContext reads the tenant ID set by AuthMiddleware
func tenantFromContext(c *gin.Context) uuid.UUID {
	tenantIDVal, exists := c.Get("tenant_id")
	if !exists {
		return uuid.Nil
	}
	tenantID, ok := tenantIDVal.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return tenantID
}
