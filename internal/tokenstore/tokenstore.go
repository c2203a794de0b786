// Package tokenstore issues and verifies the bearer tokens used by the JSON API.
//
// Tokens are stateless. Revocation is implicit: the route guard only accepts a
// token whose subject and role match the console's live session, so logging
// out invalidates every token issued before.
package tokenstore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Haymar136/faceflow-student-hub/internal/logutil"
	"github.com/Haymar136/faceflow-student-hub/pkg/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	Issuer          = "faceflow"
	MinSecretLength = 32
)

var ErrInvalidToken = errors.New("invalid token")

// AccessToken is the claim set carried by an API token.
type AccessToken struct {
	Name string      `json:"name"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session returns the session the token was issued for.
func (a *AccessToken) Session() models.Session {
	return models.Session{ID: a.Subject, Name: a.Name, Role: a.Role}
}

type TokenStore struct {
	log           *slog.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// New returns a TokenStore signing with secret. The secret must be at least
// MinSecretLength bytes.
func New(logger *slog.Logger, signingSecret string, tokenDuration time.Duration) (*TokenStore, error) {
	if len(signingSecret) < MinSecretLength {
		return nil, fmt.Errorf("token signing secret must be at least %d bytes", MinSecretLength)
	}
	if tokenDuration <= 0 {
		return nil, errors.New("token duration must be positive")
	}
	return &TokenStore{
		log:           logger,
		jwtSecret:     []byte(signingSecret),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}, nil
}

// GenerateSecret returns a random hex encoded signing secret.
func GenerateSecret() (string, error) {
	b := make([]byte, MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// IssueToken generates a signed JWT for the given session.
func (t *TokenStore) IssueToken(session models.Session) (string, time.Time, error) {
	if err := session.Validate(); err != nil {
		return "", time.Time{}, err
	}

	now := t.now()
	expires := now.Add(t.tokenDuration)
	payload := AccessToken{
		Name: session.Name,
		Role: session.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			Subject:   session.ID,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(t.jwtSecret)
	if err != nil {
		return "", time.Time{}, logutil.LogAndWrapErr(t.log, "failed to sign token", err)
	}
	return signed, expires, nil
}

// ParseAccessToken validates a JWT string and returns its claims.
// Every failure wraps ErrInvalidToken.
func (t *TokenStore) ParseAccessToken(tokenStr string) (*AccessToken, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessToken{}, func(token *jwt.Token) (any, error) {
		return t.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	payload, ok := token.Claims.(*AccessToken)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	if err := payload.Session().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return payload, nil
}

// Duration returns how long issued tokens stay valid.
func (t *TokenStore) Duration() time.Duration {
	return t.tokenDuration
}
