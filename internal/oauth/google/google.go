package google

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ErlanBelekov/auth-service/internal/domain"
	"github.com/ErlanBelekov/auth-service/internal/metrics"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/oauth2"
	googleendpoint "golang.org/x/oauth2/google"
)

const (
	// JWKSURL publishes the keys Google signs ID tokens with.
	JWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

	// PostMessageRedirect is the redirect URI used by popup / GIS code flows.
	PostMessageRedirect = "postmessage"
)

var issuers = []string{"accounts.google.com", "https://accounts.google.com"}

var ErrNoIDToken = errors.New("token response has no id_token")

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and JWKSURL default to Google's production values.
	Endpoint oauth2.Endpoint
	JWKSURL  string
}

// Verifier exchanges authorization codes with Google and validates the
// returned ID token against Google's published keys.
type Verifier struct {
	oauth    *oauth2.Config
	clientID string
	jwksURL  string
	keys     *jwk.Cache
}

// New registers the JWKS URL with a background-refreshing key cache bound
// to ctx. Keys are fetched lazily on the first exchange.
func New(ctx context.Context, cfg Config) (*Verifier, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("google oauth config missing client id or secret")
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = PostMessageRedirect
	}
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint = googleendpoint.Endpoint
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = JWKSURL
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(cfg.JWKSURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("jwk cache register: %w", err)
	}

	return &Verifier{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		clientID: cfg.ClientID,
		jwksURL:  cfg.JWKSURL,
		keys:     cache,
	}, nil
}

// Exchange trades code for a token set and returns the verified identity.
// A verified token without an email claim is not an error here; the caller
// decides what a missing email means.
func (v *Verifier) Exchange(ctx context.Context, code string) (*domain.Identity, error) {
	start := time.Now()
	identity, err := v.exchange(ctx, code)

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.OAuthExchangeDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return identity, err
}

func (v *Verifier) exchange(ctx context.Context, code string) (*domain.Identity, error) {
	tok, err := v.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, ErrNoIDToken
	}

	return v.verify(ctx, rawIDToken)
}

func (v *Verifier) verify(ctx context.Context, rawIDToken string) (*domain.Identity, error) {
	keySet, err := v.keys.Get(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch google jwks: %w", err)
	}

	idToken, err := jwt.Parse([]byte(rawIDToken),
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithAudience(v.clientID),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification: %w", err)
	}

	if !slices.Contains(issuers, idToken.Issuer()) {
		return nil, fmt.Errorf("google id_token issuer %q not accepted", idToken.Issuer())
	}

	return &domain.Identity{
		Subject:       idToken.Subject(),
		Email:         stringClaim(idToken, "email"),
		EmailVerified: boolClaim(idToken, "email_verified"),
		Name:          stringClaim(idToken, "name"),
		Picture:       stringClaim(idToken, "picture"),
	}, nil
}

func stringClaim(tok jwt.Token, name string) string {
	v, ok := tok.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Google has sent email_verified both as a JSON bool and as "true".
func boolClaim(tok jwt.Token, name string) bool {
	v, ok := tok.Get(name)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return false
}
