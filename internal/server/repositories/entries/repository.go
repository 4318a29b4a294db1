package entries

import (
	"context"

	"github.com/dmitrijs2005/facevault/internal/server/models"
)

// Repository persists vault entries. Every read and delete is scoped to an
// owner; an entry owned by someone else is indistinguishable from a missing one.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) error
	// ListByOwner returns summaries (no ciphertext), newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error)
	GetForOwner(ctx context.Context, id, ownerID string) (*models.Entry, error)
	DeleteForOwner(ctx context.Context, id, ownerID string) error
}
