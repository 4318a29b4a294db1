// Package auth issues and verifies the signed session tokens handed out on
// login, and keeps the revocation set consulted on every verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/revocations"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims of a session token. Subject is the
// user id; ID (jti) makes each token individually revocable.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenService signs tokens with a process-wide HMAC secret.
type TokenService struct {
	secret      []byte
	method      jwt.SigningMethod
	issuer      string
	lifetime    time.Duration
	now         func() time.Time
	revocations revocations.Repository
}

type Option func(*TokenService)

// WithClock replaces time.Now, for issuing and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// WithRevocations enables the revocation set.
func WithRevocations(repo revocations.Repository) Option {
	return func(s *TokenService) { s.revocations = repo }
}

// NewTokenService builds a TokenService. algorithm is one of HS256, HS384, HS512.
func NewTokenService(secret, algorithm, issuer string, lifetime time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	if lifetime <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}

	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	s := &TokenService{
		secret:   []byte(secret),
		method:   method,
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Lifetime returns the configured token lifetime.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue signs a token for userID. Timestamps are whole seconds: iat is
// rounded down and exp rounded up, so the token stays valid for at least the
// full lifetime after the moment of issue.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty user id", common.ErrorInvalidInput)
	}

	now := s.now().UTC()
	issuedAt := now.Truncate(time.Second)
	expiresAt := ceilSecond(now.Add(s.lifetime))

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: sign token: %v", common.ErrorInternal, err)
	}
	return token, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry (zero leeway) and
// consults the revocation set. Failures map to common.ErrTokenExpired or
// common.ErrInvalidToken.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: malformed token", common.ErrInvalidToken)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: bad signature", common.ErrInvalidToken)
		default:
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
		}
	}
	if !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, common.ErrInvalidToken
	}

	if s.revocations != nil {
		revoked, err := s.revocations.Exists(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: revocation lookup: %v", common.ErrorInternal, err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", common.ErrInvalidToken)
		}
	}

	return claims, nil
}

// Revoke records the token id until the token's own expiry, and purges
// revocations that have outlived their tokens.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.revocations == nil {
		return fmt.Errorf("%w: revocation is not enabled", common.ErrorInternal)
	}
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return common.ErrInvalidToken
	}

	if _, err := s.revocations.DeleteExpired(ctx, s.now()); err != nil {
		return fmt.Errorf("%w: purge revocations: %v", common.ErrorInternal, err)
	}

	err := s.revocations.Create(ctx, &models.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if err != nil {
		return fmt.Errorf("%w: revoke token: %v", common.ErrorInternal, err)
	}
	return nil
}

func ceilSecond(t time.Time) time.Time {
	c := t.Truncate(time.Second)
	if c.Before(t) {
		c = c.Add(time.Second)
	}
	return c
}
