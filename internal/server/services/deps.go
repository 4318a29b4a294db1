// Package services contains server-side business logic: the authentication
// gateway (registration, face-plus-password login, sessions) and the vault
// service (encrypted per-user secret entries).
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/server/auth"
	"github.com/dmitrijs2005/facevault/internal/server/biometric"
)

// Biometrics is the subset of *biometric.Policy the services use.
type Biometrics interface {
	Extract(ctx context.Context, image []byte) ([]float64, error)
	Matches(a, b []float64) bool
	Identify(candidate []float64, refs []biometric.Reference) (string, error)
	Compare(ctx context.Context, imageA, imageB []byte) (bool, error)
}

// Tokens is the subset of *auth.TokenService the services use.
type Tokens interface {
	Issue(userID string) (string, time.Time, error)
	Verify(ctx context.Context, token string) (*auth.Claims, error)
	Revoke(ctx context.Context, claims *auth.Claims) error
}

// authorize verifies token and returns its claims. Token failures are
// reported as common.ErrorUnauthorized while keeping the precise cause.
func authorize(ctx context.Context, tokens Tokens, token string) (*auth.Claims, error) {
	claims, err := tokens.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			return nil, fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
		}
		return nil, err
	}
	return claims, nil
}
