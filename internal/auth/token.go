// Package auth issues and reads the bearer tokens used by the chat service and
// keeps the client's token and profile in a key-value store.
package auth

import (
	"errors"
	"fmt"
	"time"

	"streamchat/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "streamchat-service"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. The subject is the user id.
type Claims struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) User() models.User {
	return models.User{ID: c.Subject, Name: c.Name, IsAdmin: c.IsAdmin}
}

// Issuer signs and validates HS256 tokens.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Issuer{Secret: []byte(secret), TTL: ttl}
}

// Issue returns a signed token for user.
func (i *Issuer) Issue(user models.User) (string, error) {
	if user.ID == "" {
		return "", fmt.Errorf("issue token: missing user id")
	}
	now := time.Now()
	claims := Claims{
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.Secret)
}

// Validate checks the signature and expiry of raw and returns its user.
func (i *Issuer) Validate(raw string) (models.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return i.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return models.User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.User(), nil
}

// DecodeUser reads the user from a token payload without checking the
// signature. Clients use it to learn their own id; the server never trusts it.
func DecodeUser(raw string) (models.User, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return models.User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.User(), nil
}
