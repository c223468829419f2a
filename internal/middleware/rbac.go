package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
	"github.com/noah-isme/campus-placement-api/pkg/response"
)

// RequireRole admits only authenticated callers holding role. Anonymous and
// wrong-role callers get the same login-required response pointing at loginPath.
func RequireRole(loginPath string, role models.Role) gin.HandlerFunc {
	return guard(loginPath, func(identity models.Identity) bool {
		return identity.Role == role
	})
}

// RequireAuthenticated admits any authenticated caller.
func RequireAuthenticated(loginPath string) gin.HandlerFunc {
	return guard(loginPath, func(models.Identity) bool { return true })
}

func guard(loginPath string, allowed func(models.Identity) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok || !allowed(identity) {
			response.Error(c, appErrors.WithRedirect(appErrors.ErrLoginRequired, loginPath))
			c.Abort()
			return
		}
		c.Next()
	}
}
