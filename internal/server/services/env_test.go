package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/facevault/internal/cryptox"
	"github.com/dmitrijs2005/facevault/internal/dbx"
	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/auth"
	"github.com/dmitrijs2005/facevault/internal/server/biometric"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubEngine returns one confident face per known image.
type stubEngine map[string][]float64

func (s stubEngine) Detect(_ context.Context, image []byte) ([]biometric.Face, error) {
	e, ok := s[string(image)]
	if !ok {
		return nil, errors.New("unknown image")
	}
	return []biometric.Face{{Embedding: e, Confidence: 0.99}}, nil
}

var faces = stubEngine{
	"face-A":      {0, 0, 0},
	"face-A-dup":  {0.1, 0, 0},
	"face-B":      {1, 0, 0},
	"face-AB-mid": {0.5, 0, 0},
	"face-C":      {5, 5, 5},
}

func img(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(name))
}

type testEnv struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	tokens *auth.TokenService
	auth   *AuthService
	vault  *VaultService
}

func newTestEnv(t *testing.T, name string) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, d, err := dbx.Open(ctx, "file:svc_"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewRepositoryManager(d)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	log, err := logging.New(logging.FormatJSON, "error", io.Discard)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("test-secret", "HS256", "facevault", time.Hour,
		auth.WithRevocations(rm.Revocations(db)))
	require.NoError(t, err)

	policy, err := biometric.NewPolicy(faces, biometric.DefaultThreshold, biometric.Euclidean, 0.5)
	require.NoError(t, err)

	keyring, err := cryptox.NewKeyring(cryptox.GenerateKey(), false)
	require.NoError(t, err)

	as, err := NewAuthService(db, rm, policy, tokens, keyring, bcrypt.MinCost, log)
	require.NoError(t, err)

	return &testEnv{
		db:     db,
		rm:     rm,
		tokens: tokens,
		auth:   as,
		vault:  NewVaultService(db, rm, tokens, keyring, log),
	}
}
