package models

import "time"

// Category names a vault entry kind. The field schema per category lives in
// the services package.
type Category string

const (
	CategoryLogin      Category = "login"
	CategoryEmail      Category = "email"
	CategoryCreditCard Category = "credit_card"
	CategoryID         Category = "id"
	CategoryMedical    Category = "medical"
)

// Entry is a stored vault secret. Ciphertext is nonce || AES-GCM output of
// the JSON field set; it is empty in listings.
type Entry struct {
	ID         string
	OwnerID    string
	Name       string
	Category   Category
	Ciphertext []byte
	CreatedAt  time.Time
}
