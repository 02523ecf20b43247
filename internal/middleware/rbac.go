package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/complaint-desk-api/pkg/errors"
	"github.com/noah-isme/complaint-desk-api/pkg/response"
)

// RequireStaff only lets staff identities through. It must run after JWT.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := IdentityFrom(c)
		if identity == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !identity.IsStaff {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "staff access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
