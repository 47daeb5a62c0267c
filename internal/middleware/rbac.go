package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/medibook-api/internal/models"
	appErrors "github.com/noah-isme/medibook-api/pkg/errors"
	"github.com/noah-isme/medibook-api/pkg/response"
)

// RequireRoles rejects principals whose role is not listed.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[principal.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAction is RequireRoles for the roles the policy table allows to perform action.
func RequireAction(action models.Action) gin.HandlerFunc {
	return RequireRoles(models.RolesFor(action)...)
}
