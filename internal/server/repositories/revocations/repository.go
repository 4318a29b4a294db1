// Package revocations declares the repository contract for revoked session
// token ids.
package revocations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/facevault/internal/server/models"
)

// Repository stores revoked token ids until they expire.
type Repository interface {
	// Create records a revocation. Revoking the same jti twice is not an error.
	Create(ctx context.Context, token *models.RevokedToken) error

	// Exists reports whether jti has been revoked.
	Exists(ctx context.Context, jti string) (bool, error)

	// DeleteExpired removes revocations whose token expired before now and
	// returns how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
