package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/cryptox"
	"github.com/dmitrijs2005/facevault/internal/dbx"
	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/auth"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginAs(t *testing.T, env *testEnv, username, password, face string) string {
	t.Helper()
	ctx := context.Background()
	_, err := env.auth.Register(ctx, username, password, img(face))
	require.NoError(t, err)
	res, err := env.auth.Login(ctx, password, img(face))
	require.NoError(t, err)
	return res.AccessToken
}

func TestVaultService_Scenario(t *testing.T) {
	env := newTestEnv(t, "vault_scenario")
	ctx := context.Background()
	token := loginAs(t, env, "jane", "s3cret!", "face-A")

	sum, err := env.vault.Create(ctx, token, "Bank", "login", map[string]string{
		"username": "jane",
		"password": "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryLogin, sum.Category)
	assert.Equal(t, "Bank", sum.Name)

	detail, err := env.vault.Reveal(ctx, token, sum.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"username": "jane", "password": "hunter2"}, detail.Fields)
	assert.Equal(t, "jane", detail.Identifier)

	require.NoError(t, env.vault.Delete(ctx, token, sum.ID))

	_, err = env.vault.Reveal(ctx, token, sum.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestVaultService_ListNewestFirstWithoutFields(t *testing.T) {
	env := newTestEnv(t, "vault_list")
	ctx := context.Background()
	token := loginAs(t, env, "jane", "s3cret!", "face-A")

	list, err := env.vault.List(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := env.vault.Create(ctx, token, "Mail", " Email ", map[string]string{
		"email": "jane@example.com", "password": "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryEmail, first.Category)

	time.Sleep(5 * time.Millisecond)
	second, err := env.vault.Create(ctx, token, "Clinic", "medical", map[string]string{
		"provider": "Acme Health", "member_id": "M-1", "notes": "",
	})
	require.NoError(t, err)

	list, err = env.vault.List(ctx, token)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	detail, err := env.vault.Reveal(ctx, token, second.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"provider": "Acme Health", "member_id": "M-1"}, detail.Fields)
}

func TestVaultService_CrossOwnerIsNotFound(t *testing.T) {
	env := newTestEnv(t, "vault_cross_owner")
	ctx := context.Background()
	jane := loginAs(t, env, "jane", "s3cret!", "face-A")
	bob := loginAs(t, env, "bob", "hunter2", "face-C")

	sum, err := env.vault.Create(ctx, jane, "Bank", "login", map[string]string{
		"username": "jane", "password": "hunter2",
	})
	require.NoError(t, err)

	_, errForeign := env.vault.Reveal(ctx, bob, sum.ID)
	_, errMissing := env.vault.Reveal(ctx, bob, uuid.NewString())
	_, errMalformed := env.vault.Reveal(ctx, bob, "not-a-uuid")
	for _, err := range []error{errForeign, errMissing, errMalformed} {
		require.ErrorIs(t, err, common.ErrorNotFound)
	}

	require.ErrorIs(t, env.vault.Delete(ctx, bob, sum.ID), common.ErrorNotFound)
	require.ErrorIs(t, env.vault.Delete(ctx, bob, "x"), common.ErrorNotFound)

	list, err := env.vault.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.vault.Reveal(ctx, jane, sum.ID)
	require.NoError(t, err)
}

func TestVaultService_Unauthorized(t *testing.T) {
	env := newTestEnv(t, "vault_unauthorized")
	ctx := context.Background()

	_, err := env.vault.List(ctx, "")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	_, err = env.vault.Create(ctx, "garbage", "Bank", "login", map[string]string{"username": "a", "password": "b"})
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	expired, err := auth.NewTokenService("test-secret", "HS256", "facevault", time.Minute,
		auth.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	require.NoError(t, err)
	old, _, err := expired.Issue(uuid.NewString())
	require.NoError(t, err)

	_, err = env.vault.List(ctx, old)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

// With a mock database that expects nothing, any storage call would fail the
// test; validation errors must surface before encryption and writes.
func TestVaultService_InvalidInputWritesNothing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rm, err := repomanager.NewRepositoryManager(dbx.SQLite)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("test-secret", "HS256", "facevault", time.Hour)
	require.NoError(t, err)
	keyring, err := cryptox.NewKeyring(cryptox.GenerateKey(), false)
	require.NoError(t, err)
	log, err := logging.New(logging.FormatJSON, "error", io.Discard)
	require.NoError(t, err)

	svc := NewVaultService(db, rm, tokens, keyring, log)
	token, _, err := tokens.Issue(uuid.NewString())
	require.NoError(t, err)

	tests := []struct {
		name     string
		entry    string
		category string
		fields   map[string]string
	}{
		{"missing required", "Bank", "login", map[string]string{"username": "jane"}},
		{"blank required", "Bank", "login", map[string]string{"username": "jane", "password": "  "}},
		{"unknown field", "Bank", "login", map[string]string{"username": "jane", "password": "x", "pin": "1"}},
		{"unknown category", "Bank", "wifi", map[string]string{"ssid": "home"}},
		{"empty name", "   ", "login", map[string]string{"username": "jane", "password": "x"}},
		{"malformed email", "Mail", "email", map[string]string{"email": "jane.example.com", "password": "x"}},
		{"card missing cvv", "Card", "credit_card", map[string]string{
			"cardholder_name": "Jane", "number": "4111", "expiry_month": "01", "expiry_year": "30",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), token, tt.entry, tt.category, tt.fields)
			require.ErrorIs(t, err, common.ErrorInvalidInput)
		})
	}

	require.NoError(t, mock.ExpectationsWereMet())
}
