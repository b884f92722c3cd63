package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"document-retrieval-gateway/internal/config"
	"document-retrieval-gateway/utils"
)

// AuthMiddleware checks the static bearer secret on every request. It runs
// before any pipeline logic: a bad token short-circuits with no side effects
// and no datastore calls.
type AuthMiddleware struct {
	token string
}

func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{token: cfg.BearerToken}
}

func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		scheme, credentials, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			utils.RespondWithUnauthorized(c, "Invalid or missing token")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(credentials), []byte(a.token)) != 1 {
			utils.RespondWithUnauthorized(c, "Invalid or missing token")
			c.Abort()
			return
		}

		c.Next()
	}
}
