package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/cryptox"
	"github.com/dmitrijs2005/facevault/internal/dbx"
	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/biometric"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/users"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	UserID      string
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// AuthService registers users and authenticates them by face, then password.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	bio         Biometrics
	tokens      Tokens
	keyring     *cryptox.Keyring
	bcryptCost  int
	dummyHash   string
	log         logging.Logger
}

// NewAuthService constructs an AuthService. bcryptCost also sets the cost
// of the dummy hash compared when no face matched.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, bio Biometrics, tokens Tokens,
	keyring *cryptox.Keyring, bcryptCost int, log logging.Logger) (*AuthService, error) {
	dummy, err := cryptox.HashPassword(hex.EncodeToString(common.GenerateRandByteArray(16)), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		bio:         bio,
		tokens:      tokens,
		keyring:     keyring,
		bcryptCost:  bcryptCost,
		dummyHash:   dummy,
		log:         log.With("component", "auth"),
	}, nil
}

// Register creates a user whose reference embedding is taken from image
// (base64, optionally a data URL). The face must not already be enrolled.
func (s *AuthService) Register(ctx context.Context, username, password, image string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" || strings.TrimSpace(image) == "" {
		return nil, fmt.Errorf("%w: username, password and image are required", common.ErrorInvalidInput)
	}
	// usernames are stored verbatim
	if strings.TrimSpace(username) != username {
		return nil, fmt.Errorf("%w: username has leading or trailing whitespace", common.ErrorInvalidInput)
	}

	img, err := biometric.DecodeImage(image)
	if err != nil {
		return nil, err
	}
	embedding, err := s.bio.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	sealed, err := s.keyring.Embeddings().EncryptValue(embedding)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		refs, err := s.references(ctx, repo)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if s.bio.Matches(embedding, ref.Embedding) {
				return fmt.Errorf("%w: face already registered", common.ErrorConflict)
			}
		}

		created, err = repo.Create(ctx, &models.User{
			Username:      username,
			PasswordHash:  hash,
			FaceEmbedding: sealed,
			CreatedAt:     time.Now().UTC(),
		})
		if err != nil {
			if errors.Is(err, common.ErrorDuplicate) {
				return fmt.Errorf("%w: username already taken", common.ErrorConflict)
			}
			return fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Login identifies the user by face and then checks the password. Zero or
// several matching faces, or a wrong password, fail without issuing a token.
func (s *AuthService) Login(ctx context.Context, password, image string) (*LoginResult, error) {
	if password == "" || strings.TrimSpace(image) == "" {
		return nil, fmt.Errorf("%w: password and image are required", common.ErrorInvalidInput)
	}

	img, err := biometric.DecodeImage(image)
	if err != nil {
		return nil, err
	}
	embedding, err := s.bio.Extract(ctx, img)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", common.ErrorInternal, err)
	}
	refs, byID := s.decodeReferences(ctx, all)

	userID, err := s.bio.Identify(embedding, refs)
	if err != nil {
		// keep timing close to the matched path
		cryptox.CheckPassword(s.dummyHash, password)
		if errors.Is(err, common.ErrorAmbiguousMatch) {
			s.log.Warn(ctx, "ambiguous face match rejected")
		}
		return nil, err
	}

	user := byID[userID]
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: password mismatch", common.ErrorUnauthorized)
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{
		UserID:      user.ID,
		AccessToken: token,
		TokenType:   common.TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

// Logout revokes the presented token until its expiry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := authorize(ctx, s.tokens, token)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return err
	}
	s.log.Info(ctx, "token revoked", "user_id", claims.UserID())
	return nil
}

// Me returns the user the token belongs to.
func (s *AuthService) Me(ctx context.Context, token string) (*models.User, error) {
	claims, err := authorize(ctx, s.tokens, token)
	if err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", common.ErrorUnauthorized)
		}
		return nil, fmt.Errorf("%w: get user: %v", common.ErrorInternal, err)
	}
	return user, nil
}

// VerifyFaces reports whether two images show the same face.
func (s *AuthService) VerifyFaces(ctx context.Context, imageA, imageB string) (bool, error) {
	if strings.TrimSpace(imageA) == "" || strings.TrimSpace(imageB) == "" {
		return false, fmt.Errorf("%w: two images are required", common.ErrorInvalidInput)
	}
	a, err := biometric.DecodeImage(imageA)
	if err != nil {
		return false, err
	}
	b, err := biometric.DecodeImage(imageB)
	if err != nil {
		return false, err
	}
	return s.bio.Compare(ctx, a, b)
}

func (s *AuthService) references(ctx context.Context, repo users.Repository) ([]biometric.Reference, error) {
	all, err := repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", common.ErrorInternal, err)
	}
	refs, _ := s.decodeReferences(ctx, all)
	return refs, nil
}

// decodeReferences decrypts stored embeddings. Rows that cannot be
// decrypted are skipped and logged; they can never match.
func (s *AuthService) decodeReferences(ctx context.Context, all []*models.User) ([]biometric.Reference, map[string]*models.User) {
	refs := make([]biometric.Reference, 0, len(all))
	byID := make(map[string]*models.User, len(all))
	for _, u := range all {
		var emb []float64
		if err := s.keyring.Embeddings().DecryptValue(u.FaceEmbedding, &emb); err != nil {
			s.log.Error(ctx, "stored embedding unreadable", "user_id", u.ID, "error", err)
			continue
		}
		refs = append(refs, biometric.Reference{ID: u.ID, Embedding: emb})
		byID[u.ID] = u
	}
	return refs, byID
}
