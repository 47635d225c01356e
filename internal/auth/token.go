package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, and
	// expired claims. Surfaced to clients as a plain rejection.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingClaims means the signature verified but the subject or
	// username claim is absent. Kept distinct from ErrInvalidToken so
	// logs can tell a bad issuer from a bad client.
	ErrMissingClaims = errors.New("token is missing required claims")
)

// Claims is the claim set carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// UserID parses the numeric subject claim.
func (c *Claims) UserID() (int64, error) {
	if c.Subject == "" {
		return 0, ErrMissingClaims
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrMissingClaims
	}
	return id, nil
}

// Manager issues and validates HS256 access tokens. The signing secret
// is process-wide and fixed at startup; validation is a pure function
// of the credential and that secret.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewManager creates a token manager.
func NewManager(secret string, issuer string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue creates a signed access token for the given identity.
func (m *Manager) Issue(userID int64, username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate verifies the signature and expiry of a token and checks that
// both identity claims are present.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if claims.Username == "" {
		return nil, ErrMissingClaims
	}

	return claims, nil
}
