package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/auth-service/internal/domain"
	"github.com/ErlanBelekov/auth-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	FederatedLogin(ctx context.Context, code string) (*usecase.FederatedResult, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type googleLoginRequest struct {
	Code string `json:"code"`
}

type emailUser struct {
	Email string `json:"email"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  emailUser `json:"user"`
}

type googleUser struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type googleLoginResponse struct {
	User  googleUser `json:"user"`
	Token string     `json:"token"`
}

type meUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err, registerRules)})
		return
	}

	token, err := h.authUsecase.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errUserAlreadyExists, "field": "email"})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "register", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// POST /api/auth/login
// Unknown email and wrong password produce the same response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err, loginRules)})
		return
	}

	res, err := h.authUsecase.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": errInvalidCredentials})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token: res.Token,
		User:  emailUser{Email: res.Email},
	})
}

// POST /api/auth/google-login
// name and picture are passed through from Google unmodified; clients must
// treat them as untrusted text.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidAccessToken})
		return
	}

	res, err := h.authUsecase.FederatedLogin(c.Request.Context(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingEmail):
			c.JSON(http.StatusBadRequest, gin.H{"message": errInvalidGoogleEmail})
		case errors.Is(err, domain.ErrOAuthExchange):
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidAccessToken})
		default:
			h.logger.ErrorContext(c.Request.Context(), "google login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	c.JSON(http.StatusOK, googleLoginResponse{
		User: googleUser{
			Email:   res.Profile.Email,
			Name:    res.Profile.Name,
			Picture: res.Profile.Picture,
		},
		Token: res.Token,
	})
}

// POST /api/auth/google/callback
// Echoes a JSON request body back. Kept for clients that post the popup
// result here while debugging; it has no side effects. Non-JSON bodies are
// not parsed and echo as {}.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var body any
	if c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": validationErrors(err, nil)})
			return
		}
	}
	if body == nil {
		body = gin.H{}
	}

	c.JSON(http.StatusOK, gin.H{"reslog": body})
}

// GET /api/auth/me
// Requires the Auth and EnsureUser middleware; a missing "user" means the
// route was mounted without them.
func (h *AuthHandler) Me(c *gin.Context) {
	v, _ := c.Get("user")
	user, _ := v.(*domain.User)
	if user == nil {
		h.logger.ErrorContext(c.Request.Context(), "me: no user in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": meUser{ID: user.ID, Email: user.Email}})
}
