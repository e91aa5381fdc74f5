package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/auth-service/internal/domain"
	"github.com/gin-gonic/gin"
)

// UserLookup is satisfied by *usecase.AuthUsecase.
type UserLookup interface {
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// EnsureUser runs after Auth. It loads the token's user and stores it under
// "user"; a token for a user that no longer exists is rejected.
func EnsureUser(users UserLookup, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		user, err := users.Me(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
				return
			}
			logger.ErrorContext(c.Request.Context(), "ensure user lookup", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Internal server error"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}
