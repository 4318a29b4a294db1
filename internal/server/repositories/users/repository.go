package users

import (
	"context"

	"github.com/dmitrijs2005/facevault/internal/server/models"
)

type Repository interface {
	// Create inserts the user; a taken username yields common.ErrorDuplicate.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// ListAll returns every user with the encrypted reference embedding,
	// for biometric identification.
	ListAll(ctx context.Context) ([]*models.User, error)
}
