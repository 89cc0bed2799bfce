package middleware

import (
	"net/http"
	"strings"

	"github.com/dealer/backend/internal/infrastructure/logger"
	"github.com/dealer/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys used to carry tenant and user information in gin.Context
const (
	TenantIDKey       = "tenant_id"
	TenantHeaderKey   = "X-Tenant-ID"
	UserNameKey       = "user_name"
	UserNameHeaderKey = "X-User-Name"
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are path prefixes served without a tenant, such as health
	// checks and public document links
	SkipPaths []string
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/ready", "/api/v1/public"},
	}
}

// TenantMiddleware requires a dealership id in X-Tenant-ID.
// Authentication sits in front of this service and forwards the header.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			respondUnauthorized(c, "Tenant identification required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			respondUnauthorized(c, "Invalid tenant ID format")
			return
		}

		c.Set(TenantIDKey, tenantID)
		if name := strings.TrimSpace(c.GetHeader(UserNameHeaderKey)); name != "" {
			c.Set(UserNameKey, name)
		}
		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID.String()))
		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}

// GetTenantUUID returns the tenant set by TenantMiddleware, or uuid.Nil
func GetTenantUUID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetUserName returns the staff member named in X-User-Name, if any
func GetUserName(c *gin.Context) string {
	return c.GetString(UserNameKey)
}
