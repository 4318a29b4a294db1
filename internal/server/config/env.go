package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig lists the recognised environment variables. Unset variables
// leave the pre-filled value untouched.
type envConfig struct {
	HTTPAddr            string        `env:"HTTP_ADDR"`
	GRPCHealthAddr      string        `env:"GRPC_HEALTH_ADDR"`
	DatabaseDSN         string        `env:"DATABASE_URL"`
	JWTSecret           string        `env:"JWT_SECRET"`
	JWTAlgorithm        string        `env:"JWT_ALGORITHM"`
	JWTIssuer           string        `env:"JWT_ISSUER"`
	AccessTokenMinutes  int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	VaultKey            string        `env:"VAULT_KEY"`
	VaultPerUserKeys    bool          `env:"VAULT_PER_USER_KEYS"`
	BcryptCost          int           `env:"BCRYPT_COST"`
	AllowedOrigins      []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	MaxBodyBytes        int64         `env:"MAX_BODY_BYTES"`
	TrustProxyHeaders   bool          `env:"TRUST_PROXY_HEADERS"`
	EngineURL           string        `env:"FACE_ENGINE_URL"`
	EngineTimeout       time.Duration `env:"FACE_ENGINE_TIMEOUT"`
	MatchThreshold      float64       `env:"FACE_MATCH_THRESHOLD"`
	MatchMetric         string        `env:"FACE_MATCH_METRIC"`
	MinFaceConfidence   float64       `env:"FACE_MIN_CONFIDENCE"`
	RegisterPerMinute   int           `env:"RATE_LIMIT_REGISTER"`
	LoginPerMinute      int           `env:"RATE_LIMIT_LOGIN"`
	VerifyFacePerMinute int           `env:"RATE_LIMIT_VERIFY_FACE"`
	LogFormat           string        `env:"LOG_FORMAT"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// parseEnv overlays environment variables on config. A nil environ reads
// the process environment.
func parseEnv(config *Config, environ map[string]string) error {
	c := &envConfig{
		HTTPAddr:            config.HTTPAddr,
		GRPCHealthAddr:      config.GRPCHealthAddr,
		DatabaseDSN:         config.DatabaseDSN,
		JWTSecret:           config.JWTSecret,
		JWTAlgorithm:        config.JWTAlgorithm,
		JWTIssuer:           config.JWTIssuer,
		AccessTokenMinutes:  int(config.AccessTokenTTL / time.Minute),
		VaultKey:            config.VaultKey,
		VaultPerUserKeys:    config.VaultPerUserKeys,
		BcryptCost:          config.BcryptCost,
		AllowedOrigins:      config.AllowedOrigins,
		MaxBodyBytes:        config.MaxBodyBytes,
		TrustProxyHeaders:   config.TrustProxyHeaders,
		EngineURL:           config.EngineURL,
		EngineTimeout:       config.EngineTimeout,
		MatchThreshold:      config.MatchThreshold,
		MatchMetric:         config.MatchMetric,
		MinFaceConfidence:   config.MinFaceConfidence,
		RegisterPerMinute:   config.RegisterPerMinute,
		LoginPerMinute:      config.LoginPerMinute,
		VerifyFacePerMinute: config.VerifyFacePerMinute,
		LogFormat:           config.LogFormat,
		LogLevel:            config.LogLevel,
	}
	minutes := c.AccessTokenMinutes

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCHealthAddr = c.GRPCHealthAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.JWTSecret = c.JWTSecret
	config.JWTAlgorithm = c.JWTAlgorithm
	config.JWTIssuer = c.JWTIssuer
	if c.AccessTokenMinutes != minutes {
		config.AccessTokenTTL = time.Duration(c.AccessTokenMinutes) * time.Minute
	}
	config.VaultKey = c.VaultKey
	config.VaultPerUserKeys = c.VaultPerUserKeys
	config.BcryptCost = c.BcryptCost
	config.AllowedOrigins = splitOrigins(c.AllowedOrigins)
	config.MaxBodyBytes = c.MaxBodyBytes
	config.TrustProxyHeaders = c.TrustProxyHeaders
	config.EngineURL = c.EngineURL
	config.EngineTimeout = c.EngineTimeout
	config.MatchThreshold = c.MatchThreshold
	config.MatchMetric = c.MatchMetric
	config.MinFaceConfidence = c.MinFaceConfidence
	config.RegisterPerMinute = c.RegisterPerMinute
	config.LoginPerMinute = c.LoginPerMinute
	config.VerifyFacePerMinute = c.VerifyFacePerMinute
	config.LogFormat = c.LogFormat
	config.LogLevel = c.LogLevel
	return nil
}
