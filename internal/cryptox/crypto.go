// Package cryptox holds the server-side cryptography: the AES-GCM cipher used
// for vault entries and stored face embeddings, key resolution and per-owner
// derivation, and password hashing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/facevault/internal/common"
)

// NonceSize is the GCM nonce length prefixed to every blob.
const NonceSize = 12

// Cipher encrypts values with AES-GCM under a single key.
//
// Blob layout is nonce || ciphertext (ciphertext includes the GCM tag).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a raw AES key (16, 24 or 32 bytes).
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext under a fresh random nonce.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, fmt.Errorf("%w: cipher is not configured", common.ErrorEncryptionFailure)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: read nonce: %v", common.ErrorEncryptionFailure, err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any failure (short blob, wrong key, tampering) is
// reported as common.ErrorDecryptionFailed.
func (c *Cipher) Open(blob []byte) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, fmt.Errorf("%w: cipher is not configured", common.ErrorDecryptionFailed)
	}
	if len(blob) < NonceSize+c.aead.Overhead() {
		return nil, fmt.Errorf("%w: blob is too short", common.ErrorDecryptionFailed)
	}

	plaintext, err := c.aead.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorDecryptionFailed, err)
	}
	return plaintext, nil
}

// EncryptValue serializes v to JSON and seals it.
func (c *Cipher) EncryptValue(v any) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %v", common.ErrorEncryptionFailure, err)
	}
	defer common.WipeByteArray(plaintext)

	return c.Seal(plaintext)
}

// DecryptValue opens blob and unmarshals the JSON plaintext into v.
func (c *Cipher) DecryptValue(blob []byte, v any) error {
	plaintext, err := c.Open(blob)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: plaintext is not valid json", common.ErrorDecryptionFailed)
	}
	return nil
}

// EncryptFields encrypts a vault field set. encoding/json writes map keys in
// sorted order, so equal field sets always serialize to the same plaintext.
func (c *Cipher) EncryptFields(fields map[string]string) ([]byte, error) {
	if fields == nil {
		fields = map[string]string{}
	}
	return c.EncryptValue(fields)
}

// DecryptFields reverses EncryptFields.
func (c *Cipher) DecryptFields(blob []byte) (map[string]string, error) {
	var fields map[string]string
	if err := c.DecryptValue(blob, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: plaintext is not a field set", common.ErrorDecryptionFailed)
	}
	return fields, nil
}
