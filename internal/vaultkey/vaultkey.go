// Package vaultkey generates vault master keys for the VAULT_KEY setting.
package vaultkey

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/facevault/internal/common"
	"github.com/dmitrijs2005/facevault/internal/cryptox"
)

// Config controls key generation.
type Config struct {
	// Size is the key length in bytes: 16, 24 or 32.
	Size int
	// Raw prints only the encoded key, without the VAULT_KEY= prefix.
	Raw bool
}

// ParseConfig reads -size and -raw from args (program name excluded).
func ParseConfig(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("vaultkey", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.Size, "size", cryptox.KeySize, "key size in bytes (16, 24 or 32)")
	fs.BoolVar(&cfg.Raw, "raw", false, "print only the base64 key")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch cfg.Size {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported key size %d", cfg.Size)
	}
	return cfg, nil
}

// Run writes a freshly generated key to out.
func Run(cfg *Config, out io.Writer) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	key := common.GenerateRandByteArray(cfg.Size)
	defer common.WipeByteArray(key)

	encoded := cryptox.EncodeKey(key)
	if cfg.Raw {
		_, err := fmt.Fprintln(out, encoded)
		return err
	}
	_, err := fmt.Fprintf(out, "VAULT_KEY=%s\n", encoded)
	return err
}
