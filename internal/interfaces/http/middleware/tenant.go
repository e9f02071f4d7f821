package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/backend/internal/infrastructure/logger"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantValidator checks that an extracted tenant exists and is active.
type TenantValidator interface {
	ValidateTenant(tenantID string) error
}

// TenantMiddlewareConfig holds configuration for the tenant middleware.
type TenantMiddlewareConfig struct {
	// HeaderEnabled allows the X-Tenant-ID header as a fallback source.
	HeaderEnabled bool
	// JWTEnabled reads the tenant from JWT claims; the JWT middleware
	// must run earlier in the chain.
	JWTEnabled bool
	// SkipPaths bypass tenant resolution entirely (health checks etc).
	SkipPaths []string
	// Required rejects requests that carry no tenant at all.
	Required bool
	// Validator, when set, vets the tenant before the request proceeds.
	Validator TenantValidator
	Logger    *zap.Logger
}

// DefaultTenantConfig requires a tenant on every request, resolved from
// JWT claims first and the X-Tenant-ID header second.
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:      true,
	}
}

// TenantMiddleware resolves the tenant for each request with the default
// configuration.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig resolves the tenant and stores it in both the
// gin context and the request context, so handlers and the logging layer
// see the same tenant.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		var tenantID, source string

		// JWT claims win over the header: the token is signed, the
		// header is not.
		if cfg.JWTEnabled {
			if v, exists := c.Get(JWTTenantIDKey); exists {
				if tid, ok := v.(string); ok && tid != "" {
					tenantID = tid
					source = "jwt"
				}
			}
		}
		if tenantID == "" && cfg.HeaderEnabled {
			if hdr := c.GetHeader(TenantHeaderKey); hdr != "" {
				tenantID = hdr
				source = "header"
			}
		}

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				respondUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}
		if tenantID == "" && cfg.Required {
			respondUnauthorized(c, "Tenant identification required")
			return
		}

		if tenantID != "" && cfg.Validator != nil {
			if err := cfg.Validator.ValidateTenant(tenantID); err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Tenant validation failed",
					zap.String("tenant_id", tenantID),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive tenant")
				return
			}
		}

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)

			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithTenantID(ctx, log, tenantID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Tenant identified",
					zap.String("tenant_id", tenantID),
					zap.String("method", source),
				)
			}
		}

		c.Next()
	}
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID returns the tenant ID resolved by the middleware, or ""
// when the request carried none.
func GetTenantID(c *gin.Context) string {
	if v, exists := c.Get(TenantIDKey); exists {
		if tid, ok := v.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID returns the resolved tenant ID as a UUID. A request
// without a tenant yields uuid.Nil and no error.
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}
