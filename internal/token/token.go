package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the absolute lifetime of an issued token. Tokens are not renewable.
const TTL = time.Hour

var (
	ErrEmptyKey     = errors.New("signing key is empty")
	ErrInvalidToken = errors.New("token is invalid or expired")
)

type UserClaim struct {
	ID string `json:"id"`
}

// Claims carries the user id both as {"user":{"id":...}} and as "sub".
type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(key []byte) (*Issuer, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	return &Issuer{key: key, ttl: TTL, now: time.Now}, nil
}

// Issue signs an HS256 token for userID that expires TTL from now.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		User: UserClaim{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry and returns the claims.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.User.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
