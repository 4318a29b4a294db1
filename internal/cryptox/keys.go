package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/facevault/internal/common"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of keys produced by GenerateKey and HKDF derivation.
const KeySize = 32

const (
	vaultInfoPrefix = "facevault/vault/"
	embeddingInfo   = "facevault/embeddings"
)

// GenerateKey returns a fresh random AES-256 key.
func GenerateKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// EncodeKey renders a key in the form accepted by ResolveVaultKey.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// ResolveVaultKey decodes the configured vault key. When encoded is empty the
// key is derived as SHA-256 of the token signing secret and fallback is true;
// callers should warn about that at startup.
func ResolveVaultKey(encoded, tokenSecret string) (key []byte, fallback bool, err error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		if tokenSecret == "" {
			return nil, false, fmt.Errorf("vault key and token secret are both empty")
		}
		sum := sha256.Sum256([]byte(tokenSecret))
		return sum[:], true, nil
	}

	key, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		key, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, false, fmt.Errorf("decode vault key: %w", err)
		}
	}
	switch len(key) {
	case 16, 24, 32:
		return key, false, nil
	default:
		return nil, false, fmt.Errorf("vault key must be 16, 24 or 32 bytes, got %d", len(key))
	}
}

// Keyring hands out ciphers derived from one master key.
//
// With perOwner disabled every owner shares the master-key cipher. With
// perOwner enabled each owner gets an HKDF-SHA256 subkey bound to its id.
// Embeddings always use their own HKDF subkey.
type Keyring struct {
	master     []byte
	perOwner   bool
	shared     *Cipher
	embeddings *Cipher
}

func NewKeyring(master []byte, perOwner bool) (*Keyring, error) {
	shared, err := NewCipher(master)
	if err != nil {
		return nil, err
	}

	embKey, err := derive(master, embeddingInfo)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(embKey)

	embeddings, err := NewCipher(embKey)
	if err != nil {
		return nil, err
	}

	m := make([]byte, len(master))
	copy(m, master)

	return &Keyring{master: m, perOwner: perOwner, shared: shared, embeddings: embeddings}, nil
}

// ForOwner returns the cipher used for the owner's vault entries.
func (k *Keyring) ForOwner(ownerID string) (*Cipher, error) {
	if !k.perOwner {
		return k.shared, nil
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: empty owner id", common.ErrorEncryptionFailure)
	}

	sub, err := derive(k.master, vaultInfoPrefix+ownerID)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(sub)

	return NewCipher(sub)
}

// Embeddings returns the cipher for stored reference embeddings.
func (k *Keyring) Embeddings() *Cipher {
	return k.embeddings
}

func derive(master []byte, info string) ([]byte, error) {
	out := make([]byte, KeySize)
	r := hkdf.New(sha256.New, master, nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return out, nil
}
