// Package config handles configuration for the server component: defaults,
// a JSON file overlay, environment variables and command-line flags, applied
// in that order.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds runtime settings for the facevault server.
//
// Secrets (JWTSecret, VaultKey) are read once here and handed to constructors.
type Config struct {
	HTTPAddr       string
	GRPCHealthAddr string
	DatabaseDSN    string

	JWTSecret      string
	JWTAlgorithm   string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	VaultKey         string
	VaultPerUserKeys bool
	BcryptCost       int

	AllowedOrigins []string
	MaxBodyBytes   int64

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	EngineURL         string
	EngineTimeout     time.Duration
	MatchThreshold    float64
	MatchMetric       string
	MinFaceConfidence float64

	RegisterPerMinute   int
	LoginPerMinute      int
	VerifyFacePerMinute int

	LogFormat string
	LogLevel  string
}

// LoadDefaults populates Config with development defaults.
// NOTE: JWTSecret must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.GRPCHealthAddr = ":50051"
	c.DatabaseDSN = "sqlite://facevault.db"

	c.JWTSecret = "change-me"
	c.JWTAlgorithm = "HS256"
	c.JWTIssuer = "facevault"
	c.AccessTokenTTL = 60 * time.Minute

	c.VaultKey = ""
	c.VaultPerUserKeys = false
	c.BcryptCost = 12

	c.AllowedOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://0.0.0.0:3000"}
	c.MaxBodyBytes = 10 << 20
	c.TrustProxyHeaders = false

	c.EngineURL = "http://127.0.0.1:5001"
	c.EngineTimeout = 10 * time.Second
	c.MatchThreshold = 0.7
	c.MatchMetric = "euclidean"
	c.MinFaceConfidence = 0.5

	c.RegisterPerMinute = 3
	c.LoginPerMinute = 5
	c.VerifyFacePerMinute = 10

	c.LogFormat = "json"
	c.LogLevel = "info"
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("jwt secret must not be empty")
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported jwt algorithm %q", c.JWTAlgorithm)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token lifetime must be positive")
	}
	if c.MatchThreshold <= 0 {
		return fmt.Errorf("match threshold must be positive")
	}
	switch c.MatchMetric {
	case "euclidean", "cosine":
	default:
		return fmt.Errorf("unsupported match metric %q", c.MatchMetric)
	}
	if c.MinFaceConfidence < 0 || c.MinFaceConfidence > 1 {
		return fmt.Errorf("min face confidence must be within [0, 1]")
	}
	if c.EngineURL == "" {
		return fmt.Errorf("face engine url must not be empty")
	}
	if c.EngineTimeout <= 0 {
		return fmt.Errorf("face engine timeout must be positive")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn must not be empty")
	}
	if c.RegisterPerMinute <= 0 || c.LoginPerMinute <= 0 || c.VerifyFacePerMinute <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
// args are the process arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, nil); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func splitOrigins(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		for _, o := range strings.Split(part, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
