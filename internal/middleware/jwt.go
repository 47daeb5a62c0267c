package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/models"
	"github.com/noah-isme/medibook-api/pkg/logger"
	"github.com/noah-isme/medibook-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the resolved principal.
const ContextPrincipalKey = "currentPrincipal"

// PrincipalResolver turns an Authorization header into a principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, header string) (*models.Principal, error)
}

// Authenticate protects routes by requiring a valid bearer token.
func Authenticate(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is present but does not block.
func OptionalAuth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		if principal, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization")); err == nil {
			setPrincipal(c, principal)
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate, or nil.
func PrincipalFrom(c *gin.Context) *models.Principal {
	value, exists := c.Get(ContextPrincipalKey)
	if !exists {
		return nil
	}
	principal, ok := value.(*models.Principal)
	if !ok {
		return nil
	}
	return principal
}

func setPrincipal(c *gin.Context, principal *models.Principal) {
	c.Set(ContextPrincipalKey, principal)
	c.Set(logger.PrincipalKey, principal.ID)
}
