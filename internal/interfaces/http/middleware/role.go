package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opsdesk/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// RoleConfig holds configuration for role middleware
type RoleConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when access is denied (optional)
	OnDenied func(c *gin.Context, requiredRoles []string)
}

// RequireRole creates middleware that requires a specific role
func RequireRole(role string) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireRoleWithConfig creates middleware with custom config
func RequireRoleWithConfig(role string, cfg RoleConfig) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(cfg, role)
}

// RequireAnyRole creates middleware that requires any of the specified roles
// User must hold at least one of the listed roles to proceed
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return RequireAnyRoleWithConfig(RoleConfig{}, roles...)
}

// RequireAnyRoleWithConfig creates middleware that requires any of the specified roles with custom config
func RequireAnyRoleWithConfig(cfg RoleConfig, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			handleRoleDenied(c, cfg, roles, "No authentication claims found")
			return
		}

		hasAny := false
		for _, role := range roles {
			if claims.HasRole(role) {
				hasAny = true
				break
			}
		}
		if !hasAny {
			handleRoleDenied(c, cfg, roles, "User lacks required role")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Role check passed",
				zap.String("user_id", claims.UserID),
				zap.Strings("required_any", roles),
				zap.Strings("user_roles", claims.Roles),
			)
		}

		c.Next()
	}
}

// RequireAdmin creates middleware gating administrative operations such as
// counter adjustment and ledger migration
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(auth.RoleAdmin)
}

// handleRoleDenied handles role denied scenarios
func handleRoleDenied(c *gin.Context, cfg RoleConfig, requiredRoles []string, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, requiredRoles)
		return
	}

	if cfg.Logger != nil {
		claims := GetJWTClaims(c)
		userID := ""
		userRoles := []string{}
		if claims != nil {
			userID = claims.UserID
			userRoles = claims.Roles
		}

		cfg.Logger.Warn("Role denied",
			zap.String("reason", reason),
			zap.String("user_id", userID),
			zap.Strings("required_roles", requiredRoles),
			zap.Strings("user_roles", userRoles),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_FORBIDDEN",
			"message": "Access denied: insufficient role",
		},
	})
}
