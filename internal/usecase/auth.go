package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/auth-service/internal/domain"
	"github.com/ErlanBelekov/auth-service/internal/email"
	"github.com/ErlanBelekov/auth-service/internal/metrics"
	"github.com/ErlanBelekov/auth-service/internal/password"
	"github.com/ErlanBelekov/auth-service/internal/repository"
)

const welcomeSendTimeout = 5 * time.Second

// timingPassword is hashed once and compared against when no real hash is
// available, so unknown emails take as long as wrong passwords.
const timingPassword = "timing-equalisation-only"

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// IdentityVerifier exchanges an authorization code for a verified identity.
type IdentityVerifier interface {
	Exchange(ctx context.Context, code string) (*domain.Identity, error)
}

type LoginResult struct {
	Token string
	Email string
}

type FederatedResult struct {
	Token   string
	Profile domain.Profile
}

type AuthUsecase struct {
	users      repository.UserRepository
	hasher     PasswordHasher
	tokens     TokenIssuer
	identities IdentityVerifier
	email      email.Sender
	logger     *slog.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUsecase(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	identities IdentityVerifier,
	emailSender email.Sender,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		identities: identities,
		email:      emailSender,
		logger:     logger.With("component", "auth_usecase"),
	}
}

// Register creates a password account and returns a token for it.
// Fails with domain.ErrDuplicateEmail if the email is taken, including when a
// concurrent registration wins the store's unique index.
func (u *AuthUsecase) Register(ctx context.Context, emailAddr, plain string) (token string, err error) {
	defer func() { recordAttempt("register", err) }()

	_, err = u.users.FindByEmail(ctx, emailAddr)
	if err == nil {
		return "", domain.ErrDuplicateEmail
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("find user: %w", err)
	}

	hash, err := u.hasher.Hash(plain)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	user, err := u.users.Create(ctx, emailAddr, hash)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", domain.ErrDuplicateEmail
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	metrics.UsersCreatedTotal.WithLabelValues("password").Inc()
	u.sendWelcome(ctx, user.Email)

	token, err = u.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Login never distinguishes an unknown email from a wrong password: both
// return domain.ErrInvalidCredentials.
func (u *AuthUsecase) Login(ctx context.Context, emailAddr, plain string) (res *LoginResult, err error) {
	defer func() { recordAttempt("login", err) }()

	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.compareDummy(plain)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	// Federated-only accounts have no password to check.
	if !user.HasPassword() {
		u.compareDummy(plain)
		return nil, domain.ErrInvalidCredentials
	}

	if err = u.hasher.Compare(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, Email: user.Email}, nil
}

// FederatedLogin exchanges an authorization code with the identity provider,
// finds or creates the user for the asserted email and returns a token plus
// the provider's display profile. Provider failures collapse into
// domain.ErrOAuthExchange; the detail is only logged.
func (u *AuthUsecase) FederatedLogin(ctx context.Context, code string) (res *FederatedResult, err error) {
	defer func() { recordAttempt("federated_login", err) }()

	identity, err := u.identities.Exchange(ctx, code)
	if err != nil {
		u.logger.WarnContext(ctx, "oauth exchange failed", "error", err)
		return nil, domain.ErrOAuthExchange
	}
	if identity.Email == "" {
		return nil, domain.ErrMissingEmail
	}
	if !identity.EmailVerified {
		u.logger.WarnContext(ctx, "provider email not marked verified", "subject", identity.Subject)
	}

	user, err := u.findOrCreateFederated(ctx, identity.Email)
	if err != nil {
		return nil, err
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &FederatedResult{
		Token: token,
		Profile: domain.Profile{
			Email:   identity.Email,
			Name:    identity.Name,
			Picture: identity.Picture,
		},
	}, nil
}

// Me returns the account behind an already-verified token subject.
func (u *AuthUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// findOrCreateFederated creates accounts with an empty password hash, which
// the password flow always rejects.
func (u *AuthUsecase) findOrCreateFederated(ctx context.Context, emailAddr string) (*domain.User, error) {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	user, err = u.users.Create(ctx, emailAddr, "")
	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		// Lost a race with a concurrent sign-up for the same email.
		user, err = u.users.FindByEmail(ctx, emailAddr)
		if err != nil {
			return nil, fmt.Errorf("find user after conflict: %w", err)
		}
		return user, nil
	}

	metrics.UsersCreatedTotal.WithLabelValues("google").Inc()
	u.sendWelcome(ctx, user.Email)
	return user, nil
}

func (u *AuthUsecase) sendWelcome(ctx context.Context, to string) {
	if u.email == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, welcomeSendTimeout)
	defer cancel()

	body := `<p>Your account has been created. You can now sign in.</p>`
	if err := u.email.Send(sendCtx, to, "Welcome", body); err != nil {
		u.logger.ErrorContext(ctx, "send welcome email", "error", err)
	}
}

func (u *AuthUsecase) compareDummy(plain string) {
	u.dummyOnce.Do(func() {
		hash, err := u.hasher.Hash(timingPassword)
		if err != nil {
			u.logger.Error("hash timing password", "error", err)
			return
		}
		u.dummyHash = hash
	})
	if u.dummyHash != "" {
		_ = u.hasher.Compare(u.dummyHash, plain)
	}
}

func recordAttempt(operation string, err error) {
	metrics.AuthAttemptsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrOAuthExchange):
		return "oauth_exchange_error"
	case errors.Is(err, domain.ErrMissingEmail):
		return "missing_email"
	default:
		return "error"
	}
}
