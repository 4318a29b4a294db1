package services

import (
	"testing"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	c, err := NormalizeCategory("  Credit_Card ")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryCreditCard, c)

	_, err = NormalizeCategory("wifi")
	require.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestValidateFields_OptionalDropped(t *testing.T) {
	out, err := ValidateFields(models.CategoryID, map[string]string{
		"document_type": "passport", "id_number": "X123", "country": "LV", "expiration_date": " ",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"document_type": "passport", "id_number": "X123", "country": "LV"}, out)
}

func TestValidEmail(t *testing.T) {
	for s, want := range map[string]bool{
		"jane@example.com":  true,
		"a@b.co":            true,
		"jane@example":      false,
		"@example.com":      false,
		"jane@":             false,
		"jane@.com":         false,
		"jane@example.":     false,
		"ja ne@example.com": false,
	} {
		assert.Equal(t, want, validEmail(s), s)
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		category models.Category
		fields   map[string]string
		want     string
	}{
		{models.CategoryLogin, map[string]string{"username": "jane"}, "jane"},
		{models.CategoryEmail, map[string]string{"email": "jane@example.com"}, "jane@example.com"},
		{models.CategoryCreditCard, map[string]string{"number": "4111 1111 1111 1234"}, "•••• 1234"},
		{models.CategoryCreditCard, map[string]string{"number": "12"}, "•••• 12"},
		{models.CategoryID, map[string]string{"document_type": "passport", "id_number": "X123"}, "PASSPORT X123"},
		{models.CategoryMedical, map[string]string{"provider": "Acme", "member_id": "M-1"}, "M-1"},
		{models.CategoryMedical, map[string]string{"provider": "Acme"}, "Acme"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Identifier(tt.category, tt.fields))
	}
}
