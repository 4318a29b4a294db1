package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/facevault/internal/flagx"
	"github.com/dmitrijs2005/facevault/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration, so both "15m" and integer nanoseconds are accepted.
//
// parseJson pre-fills it from the current Config, so keys missing in the
// file keep their previous values.
type JsonConfig struct {
	HTTPAddr            string         `json:"http_addr"`
	GRPCHealthAddr      string         `json:"grpc_health_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	JWTSecret           string         `json:"jwt_secret"`
	JWTAlgorithm        string         `json:"jwt_algorithm"`
	JWTIssuer           string         `json:"jwt_issuer"`
	AccessTokenTTL      timex.Duration `json:"access_token_ttl"`
	VaultKey            string         `json:"vault_key"`
	VaultPerUserKeys    bool           `json:"vault_per_user_keys"`
	BcryptCost          int            `json:"bcrypt_cost"`
	AllowedOrigins      []string       `json:"allowed_origins"`
	MaxBodyBytes        int64          `json:"max_body_bytes"`
	TrustProxyHeaders   bool           `json:"trust_proxy_headers"`
	EngineURL           string         `json:"engine_url"`
	EngineTimeout       timex.Duration `json:"engine_timeout"`
	MatchThreshold      float64        `json:"match_threshold"`
	MatchMetric         string         `json:"match_metric"`
	MinFaceConfidence   float64        `json:"min_face_confidence"`
	RegisterPerMinute   int            `json:"register_per_minute"`
	LoginPerMinute      int            `json:"login_per_minute"`
	VerifyFacePerMinute int            `json:"verify_face_per_minute"`
	LogFormat           string         `json:"log_format"`
	LogLevel            string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config (if any) over config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{
		HTTPAddr:            config.HTTPAddr,
		GRPCHealthAddr:      config.GRPCHealthAddr,
		DatabaseDSN:         config.DatabaseDSN,
		JWTSecret:           config.JWTSecret,
		JWTAlgorithm:        config.JWTAlgorithm,
		JWTIssuer:           config.JWTIssuer,
		AccessTokenTTL:      timex.Duration{Duration: config.AccessTokenTTL},
		VaultKey:            config.VaultKey,
		VaultPerUserKeys:    config.VaultPerUserKeys,
		BcryptCost:          config.BcryptCost,
		AllowedOrigins:      config.AllowedOrigins,
		MaxBodyBytes:        config.MaxBodyBytes,
		TrustProxyHeaders:   config.TrustProxyHeaders,
		EngineURL:           config.EngineURL,
		EngineTimeout:       timex.Duration{Duration: config.EngineTimeout},
		MatchThreshold:      config.MatchThreshold,
		MatchMetric:         config.MatchMetric,
		MinFaceConfidence:   config.MinFaceConfidence,
		RegisterPerMinute:   config.RegisterPerMinute,
		LoginPerMinute:      config.LoginPerMinute,
		VerifyFacePerMinute: config.VerifyFacePerMinute,
		LogFormat:           config.LogFormat,
		LogLevel:            config.LogLevel,
	}

	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	config.HTTPAddr = c.HTTPAddr
	config.GRPCHealthAddr = c.GRPCHealthAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.JWTSecret = c.JWTSecret
	config.JWTAlgorithm = c.JWTAlgorithm
	config.JWTIssuer = c.JWTIssuer
	config.AccessTokenTTL = c.AccessTokenTTL.Duration
	config.VaultKey = c.VaultKey
	config.VaultPerUserKeys = c.VaultPerUserKeys
	config.BcryptCost = c.BcryptCost
	config.AllowedOrigins = splitOrigins(c.AllowedOrigins)
	config.MaxBodyBytes = c.MaxBodyBytes
	config.TrustProxyHeaders = c.TrustProxyHeaders
	config.EngineURL = c.EngineURL
	config.EngineTimeout = c.EngineTimeout.Duration
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
