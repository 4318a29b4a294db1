package models

import "time"

// RevokedToken marks a session token id as unusable until ExpiresAt.
type RevokedToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
}
