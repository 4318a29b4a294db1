package services

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

type fieldSchema struct {
	required []string
	optional []string
}

var schemas = map[models.Category]fieldSchema{
	models.CategoryLogin: {
		required: []string{"username", "password"},
	},
	models.CategoryEmail: {
		required: []string{"email", "password"},
	},
	models.CategoryCreditCard: {
		required: []string{"cardholder_name", "number", "expiry_month", "expiry_year", "cvv"},
		optional: []string{"network"},
	},
	models.CategoryID: {
		required: []string{"document_type", "id_number", "country"},
		optional: []string{"expiration_date"},
	},
	models.CategoryMedical: {
		required: []string{"provider", "member_id"},
		optional: []string{"plan_name", "group_number", "notes"},
	},
}

var lower = cases.Lower(language.Und)

// NormalizeCategory trims and lower-cases raw and checks it names a known
// category.
func NormalizeCategory(raw string) (models.Category, error) {
	c := models.Category(lower.String(strings.TrimSpace(raw)))
	if _, ok := schemas[c]; !ok {
		return "", fmt.Errorf("%w: unknown category %q", common.ErrorInvalidInput, raw)
	}
	return c, nil
}

func normalizeName(raw string) (string, error) {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if name == "" {
		return "", fmt.Errorf("%w: name is required", common.ErrorInvalidInput)
	}
	return name, nil
}

// ValidateFields checks fields against the category schema and returns the
// set to encrypt: required values must be non-blank, unknown keys are
// rejected and blank optional values are dropped.
func ValidateFields(category models.Category, fields map[string]string) (map[string]string, error) {
	schema, ok := schemas[category]
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", common.ErrorInvalidInput, category)
	}

	allowed := make(map[string]bool, len(schema.required)+len(schema.optional))
	for _, k := range schema.required {
		allowed[k] = true
	}
	for _, k := range schema.optional {
		allowed[k] = true
	}

	var unknown []string
	for k := range fields {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: unknown fields for %s: %s", common.ErrorInvalidInput, category, strings.Join(unknown, ", "))
	}

	out := make(map[string]string, len(fields))
	var missing []string
	for _, k := range schema.required {
		v := fields[k]
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
			continue
		}
		out[k] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields for %s: %s", common.ErrorInvalidInput, category, strings.Join(missing, ", "))
	}
	for _, k := range schema.optional {
		if v := fields[k]; strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}

	if category == models.CategoryEmail && !validEmail(out["email"]) {
		return nil, fmt.Errorf("%w: malformed email", common.ErrorInvalidInput)
	}
	return out, nil
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t") {
		return false
	}
	domain := s[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// Identifier derives the short display label shown next to a revealed entry.
func Identifier(category models.Category, fields map[string]string) string {
	switch category {
	case models.CategoryLogin:
		return fields["username"]
	case models.CategoryEmail:
		return fields["email"]
	case models.CategoryCreditCard:
		var digits []rune
		for _, r := range fields["number"] {
			if unicode.IsDigit(r) {
				digits = append(digits, r)
			}
		}
		if len(digits) > 4 {
			digits = digits[len(digits)-4:]
		}
		return "•••• " + string(digits)
	case models.CategoryID:
		return strings.TrimSpace(strings.ToUpper(fields["document_type"]) + " " + fields["id_number"])
	case models.CategoryMedical:
		if id := fields["member_id"]; id != "" {
			return id
		}
		return fields["provider"]
	}
	return ""
}
