package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/utils"
)

// AuthMiddleware verifies the bearer JWT. When required is false a missing header passes
// through, but a present and invalid token is still rejected.
func AuthMiddleware(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := strings.TrimSpace(c.GetHeader("Authorization"))
		if auth == "" {
			auth = strings.TrimSpace(c.GetHeader("token"))
		} else if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
			auth = strings.TrimSpace(auth[7:])
		}

		if auth == "" {
			if required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Next()
			return
		}

		claim, err := utils.JwtValidate(secret, auth)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), claim.ID)
		ctx = utils.SetRoleInContext(ctx, claim.Role)
		ctx = utils.SetTriggeredByInContext(ctx, utils.TriggeredByUser(claim.ID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
