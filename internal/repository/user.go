package repository

import (
	"context"

	"github.com/ErlanBelekov/auth-service/internal/domain"
)

// UserRepository is the credential store. Create must return
// domain.ErrDuplicateEmail when the email is already taken.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, email, passwordHash string) (*domain.User, error)
}
