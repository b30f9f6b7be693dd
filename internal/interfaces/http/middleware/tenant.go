package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/storefront/backend/internal/application/identity"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey         = "tenant_id"
	TenantCodeKey       = "tenant_code"
	TenantCodeHeaderKey = "X-Tenant-Code"
)

// TenantResolver resolves a tenant code to a tenant. Satisfied by
// identityapp.TenantService.
type TenantResolver interface {
	GetByCode(ctx context.Context, code string) (*identityapp.TenantResponse, error)
}

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// Resolver resolves X-Tenant-Code headers. Required when HeaderEnabled.
	Resolver TenantResolver
	// HeaderEnabled enables X-Tenant-Code header resolution for public routes
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware first)
	JWTEnabled bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// AdminTenantMiddleware extracts the tenant from JWT claims. Admin routes are
// always authenticated, so the claim is the only source.
func AdminTenantMiddleware() gin.HandlerFunc {
	return TenantMiddleware(TenantMiddlewareConfig{JWTEnabled: true})
}

// StoreTenantMiddleware resolves the tenant from the X-Tenant-Code header.
// Storefront routes are anonymous; the code names the shop being browsed.
func StoreTenantMiddleware(resolver TenantResolver, log *zap.Logger) gin.HandlerFunc {
	return TenantMiddleware(TenantMiddlewareConfig{
		Resolver:      resolver,
		HeaderEnabled: true,
		Logger:        log,
	})
}

// TenantMiddleware returns tenant middleware with custom configuration.
// Extraction order: JWT claims, then X-Tenant-Code header.
func TenantMiddleware(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tenantID string
		var tenantCode string

		if cfg.JWTEnabled {
			if jwtTenantID, exists := c.Get(JWTTenantIDKey); exists {
				if tid, ok := jwtTenantID.(string); ok && tid != "" {
					tenantID = tid
				}
			}
		}

		if tenantID == "" && cfg.HeaderEnabled {
			code := c.GetHeader(TenantCodeHeaderKey)
			if code == "" {
				respondTenantRequired(c)
				return
			}
			if cfg.Resolver == nil {
				respondTenantRequired(c)
				return
			}
			tenant, err := cfg.Resolver.GetByCode(c.Request.Context(), code)
			if err != nil {
				if cfg.Logger != nil {
					cfg.Logger.Warn("Tenant resolution failed",
						zap.String("tenant_code", code),
						zap.Error(err),
					)
				}
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "NOT_FOUND",
						"message": "Unknown store",
					},
				})
				return
			}
			tenantID = tenant.ID.String()
			tenantCode = tenant.Code
		}

		if tenantID == "" {
			respondTenantRequired(c)
			return
		}

		if _, err := uuid.Parse(tenantID); err != nil {
			respondTenantRequired(c)
			return
		}

		c.Set(TenantIDKey, tenantID)
		if tenantCode != "" {
			c.Set(TenantCodeKey, tenantCode)
		}

		// Set in request context for service layer logging
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithTenantID(ctx, log, tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func respondTenantRequired(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": "Tenant identification required",
		},
	})
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// GetTenantCode retrieves the tenant code from gin.Context
func GetTenantCode(c *gin.Context) string {
	if tenantCode, exists := c.Get(TenantCodeKey); exists {
		if code, ok := tenantCode.(string); ok {
			return code
		}
	}
	return ""
}
