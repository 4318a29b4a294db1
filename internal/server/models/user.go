// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered identity. FaceEmbedding holds the encrypted
// reference embedding, never the raw vector.
type User struct {
	ID            string
	Username      string
	PasswordHash  string
	FaceEmbedding []byte
	CreatedAt     time.Time
}
