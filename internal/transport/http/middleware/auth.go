package middleware

import (
	"net/http"
	"strings"

	"github.com/ErlanBelekov/auth-service/internal/requestctx"
	"github.com/ErlanBelekov/auth-service/internal/token"
	"github.com/gin-gonic/gin"
)

const errUnauthorized = "Unauthorized"

// TokenParser is satisfied by *token.Issuer.
type TokenParser interface {
	Parse(raw string) (*token.Claims, error)
}

// Auth validates a Bearer token and sets "userID" in the gin context and in
// the request context for logging.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		userID := claims.User.ID
		c.Set("userID", userID)
		c.Request = c.Request.WithContext(requestctx.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
