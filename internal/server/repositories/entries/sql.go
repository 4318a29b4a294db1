// Package entries provides the SQL-backed vault store for encrypted entries.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/dbx"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/google/uuid"
)

// SQLRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Create inserts a new entry, assigning ID and CreatedAt when unset.
func (r *SQLRepository) Create(ctx context.Context, entry *models.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO entries (id, owner_id, name, category, ciphertext, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		entry.ID, entry.OwnerID, entry.Name, string(entry.Category), entry.Ciphertext, entry.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("%w: entry %s", common.ErrorDuplicate, entry.ID)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Entry, error) {
	query := `
		SELECT id, owner_id, name, category, created_at
		FROM entries
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		var (
			item     models.Entry
			category string
		)
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &category, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		item.Category = models.Category(category)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) GetForOwner(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := `
		SELECT id, owner_id, name, category, ciphertext, created_at
		FROM entries
		WHERE id = $1 AND owner_id = $2
	`
	var (
		item     models.Entry
		category string
	)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id, ownerID).
		Scan(&item.ID, &item.OwnerID, &item.Name, &category, &item.Ciphertext, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	item.Category = models.Category(category)
	return &item, nil
}

// DeleteForOwner removes the entry; zero affected rows yields
// common.ErrorNotFound.
func (r *SQLRepository) DeleteForOwner(ctx context.Context, id, ownerID string) error {
	query := `
		DELETE FROM entries
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
