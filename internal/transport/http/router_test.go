package httptransport_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/auth-service/internal/domain"
	"github.com/ErlanBelekov/auth-service/internal/password"
	"github.com/ErlanBelekov/auth-service/internal/token"
	httptransport "github.com/ErlanBelekov/auth-service/internal/transport/http"
	"github.com/ErlanBelekov/auth-service/internal/transport/http/handler"
	"github.com/ErlanBelekov/auth-service/internal/usecase"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[email]; ok {
		return nil, domain.ErrDuplicateEmail
	}
	now := time.Now()
	u := &domain.User{
		ID:           fmt.Sprintf("user-%d", len(m.byID)+1),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.byEmail[email] = u
	m.byID[u.ID] = u
	return u, nil
}

type noGoogle struct{}

func (noGoogle) Exchange(context.Context, string) (*domain.Identity, error) {
	return nil, domain.ErrOAuthExchange
}

func newTestRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	issuer, err := token.NewIssuer([]byte("router-test-secret-at-least-32-chars"))
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	users := &memUsers{byEmail: map[string]*domain.User{}, byID: map[string]*domain.User{}}
	uc := usecase.NewAuthUsecase(users, password.NewBcryptHasher(bcrypt.MinCost), issuer, noGoogle{}, nil, logger)
	return httptransport.NewRouter(logger, handler.NewAuthHandler(uc, logger), issuer, uc, origins)
}

func do(r *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

// Register, re-register, bad login, good login, then /me with the issued token.
func TestRouter_RegisterLoginScenario(t *testing.T) {
	r := newTestRouter(t, nil)
	creds := `{"email":"a@x.com","password":"secret1"}`

	w := do(r, http.MethodPost, "/api/auth/register", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}
	if tok, _ := decode(t, w)["token"].(string); tok == "" {
		t.Fatal("register returned no token")
	}

	w = do(r, http.MethodPost, "/api/auth/register", creds, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second register status = %d, want 400", w.Code)
	}
	if body := decode(t, w); body["error"] != "User already exists" || body["field"] != "email" {
		t.Errorf("second register body = %v", body)
	}

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong password status = %d, want 400", w.Code)
	}
	if got := decode(t, w)["msg"]; got != "Invalid email or password" {
		t.Errorf("wrong password msg = %v", got)
	}

	w = do(r, http.MethodPost, "/api/auth/login", `{"email":"nobody@x.com","password":"secret1"}`, nil)
	if got := decode(t, w)["msg"]; w.Code != http.StatusBadRequest || got != "Invalid email or password" {
		t.Errorf("unknown email: status %d msg %v", w.Code, got)
	}

	w = do(r, http.MethodPost, "/api/auth/login", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	user, _ := body["user"].(map[string]any)
	tok, _ := body["token"].(string)
	if tok == "" || user["email"] != "a@x.com" {
		t.Fatalf("login body = %v", body)
	}

	w = do(r, http.MethodGet, "/api/auth/me", "", map[string]string{"Authorization": "Bearer " + tok})
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", w.Code, w.Body.String())
	}
	me, _ := decode(t, w)["user"].(map[string]any)
	if me["email"] != "a@x.com" || me["id"] == "" {
		t.Errorf("me = %v", me)
	}
}

func TestRouter_Me_WithoutToken_Returns401(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodGet, "/api/auth/me", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := decode(t, w)["error"]; got != "Unauthorized" {
		t.Errorf("error = %v", got)
	}
}

func TestRouter_GoogleLogin_ExchangeFailure_Returns400(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/auth/google-login", `{"code":"bad"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if got := decode(t, w)["error"]; got != "Invalid access token" {
		t.Errorf("error = %v", got)
	}
}

func TestRouter_SetsRequestIDAndSecurityHeaders(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/auth/google/callback", `{}`, nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestRouter_CORS_AllowAll(t *testing.T) {
	r := newTestRouter(t, []string{"*"})

	w := do(r, http.MethodOptions, "/api/auth/login", "", map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": "POST",
	})
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRouter_CORS_RestrictedOrigins(t *testing.T) {
	r := newTestRouter(t, []string{"https://app.example"})

	w := do(r, http.MethodOptions, "/api/auth/login", "", map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": "POST",
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Errorf("allowed origin header = %q", got)
	}

	w = do(r, http.MethodOptions, "/api/auth/login", "", map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed origin status = %d, want 403", w.Code)
	}
}

func TestRouter_RegisterAndLogin_PasswordOver72Bytes(t *testing.T) {
	r := newTestRouter(t, nil)
	creds := fmt.Sprintf(`{"email":"long@x.com","password":%q}`, strings.Repeat("p", 80))

	w := do(r, http.MethodPost, "/api/auth/register", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register status = %d, body %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/api/auth/login", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestRouter_GoogleCallback_FormBody_EchoesEmptyObject(t *testing.T) {
	r := newTestRouter(t, nil)

	w := do(r, http.MethodPost, "/api/auth/google/callback", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty body status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/google/callback", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("form body status = %d, body %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"reslog":{}`) {
		t.Errorf("body = %q, want reslog {}", w.Body.String())
	}
}
