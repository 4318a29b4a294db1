package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/cryptox"
	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// EntrySummary is the listing view of a vault entry; it never carries
// field values.
type EntrySummary struct {
	ID        string
	Name      string
	Category  models.Category
	CreatedAt time.Time
}

// EntryDetail is a revealed entry.
type EntryDetail struct {
	EntrySummary
	Fields     map[string]string
	Identifier string
}

// VaultService stores and reveals encrypted entries for the token's owner.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      Tokens
	keyring     *cryptox.Keyring
	log         logging.Logger
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, tokens Tokens, keyring *cryptox.Keyring, log logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		keyring:     keyring,
		log:         log.With("component", "vault"),
	}
}

// Create validates fields against the category schema, encrypts them and
// stores the entry. Nothing is encrypted or written when validation fails.
func (s *VaultService) Create(ctx context.Context, token, name, category string, fields map[string]string) (*EntrySummary, error) {
	claims, err := authorize(ctx, s.tokens, token)
	if err != nil {
		return nil, err
	}

	name, err = normalizeName(name)
	if err != nil {
		return nil, err
	}
	cat, err := NormalizeCategory(category)
	if err != nil {
		return nil, err
	}
	clean, err := ValidateFields(cat, fields)
	if err != nil {
		return nil, err
	}

	c, err := s.keyring.ForOwner(claims.UserID())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorEncryptionFailure, err)
	}
	blob, err := c.EncryptFields(clean)
	if err != nil {
		return nil, err
	}

	entry := &models.Entry{
		OwnerID:    claims.UserID(),
		Name:       name,
		Category:   cat,
		Ciphertext: blob,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repomanager.Entries(s.db).Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: create entry: %v", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "vault entry created", "user_id", entry.OwnerID, "entry_id", entry.ID, "category", string(cat))
	return summarize(entry), nil
}

// List returns the owner's entries, newest first.
func (s *VaultService) List(ctx context.Context, token string) ([]*EntrySummary, error) {
	claims, err := authorize(ctx, s.tokens, token)
	if err != nil {
		return nil, err
	}
	items, err := s.repomanager.Entries(s.db).ListByOwner(ctx, claims.UserID())
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", common.ErrorInternal, err)
	}
	out := make([]*EntrySummary, 0, len(items))
	for _, e := range items {
		out = append(out, summarize(e))
	}
	return out, nil
}

// Reveal decrypts one entry. Missing, foreign and malformed ids all yield
// common.ErrorNotFound.
func (s *VaultService) Reveal(ctx context.Context, token, id string) (*EntryDetail, error) {
	claims, err := authorize(ctx, s.tokens, token)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: entry", common.ErrorNotFound)
	}

	entry, err := s.repomanager.Entries(s.db).GetForOwner(ctx, id, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get entry: %v", common.ErrorInternal, err)
	}

	c, err := s.keyring.ForOwner(entry.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorDecryptionFailed, err)
	}
	fields, err := c.DecryptFields(entry.Ciphertext)
	if err != nil {
		s.log.Error(ctx, "entry decryption failed", "user_id", entry.OwnerID, "entry_id", entry.ID)
		return nil, err
	}

	return &EntryDetail{
		EntrySummary: *summarize(entry),
		Fields:       fields,
		Identifier:   Identifier(entry.Category, fields),
	}, nil
}

// Delete removes one entry under the same lookup rules as Reveal.
func (s *VaultService) Delete(ctx context.Context, token, id string) error {
	claims, err := authorize(ctx, s.tokens, token)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: entry", common.ErrorNotFound)
	}
	if err := s.repomanager.Entries(s.db).DeleteForOwner(ctx, id, claims.UserID()); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return fmt.Errorf("%w: delete entry: %v", common.ErrorInternal, err)
	}
	s.log.Info(ctx, "vault entry deleted", "user_id", claims.UserID(), "entry_id", id)
	return nil
}

func summarize(e *models.Entry) *EntrySummary {
	return &EntrySummary{ID: e.ID, Name: e.Name, Category: e.Category, CreatedAt: e.CreatedAt}
}
