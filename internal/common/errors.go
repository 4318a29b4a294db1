// Package common defines shared constants and sentinel errors used across
// facevault layers. Callers should use errors.Is to match these values;
// details are attached with fmt.Errorf("%w: ...").
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound  = errors.New("not found")
	ErrorDuplicate = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")
	ErrorConflict     = errors.New("conflict")

	// Biometric errors.
	ErrorBiometricRejected = errors.New("biometric rejected")
	ErrorAmbiguousMatch    = errors.New("ambiguous biometric match")

	// Vault crypto errors. Never retried.
	ErrorEncryptionFailure = errors.New("encryption failure")
	ErrorDecryptionFailed  = errors.New("decryption failed")

	// Token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
