package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCHealthAddr)
	assert.Equal(t, "sqlite://facevault.db", c.DatabaseDSN)
	assert.Equal(t, "change-me", c.JWTSecret)
	assert.Equal(t, "HS256", c.JWTAlgorithm)
	assert.Equal(t, 60*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 0.7, c.MatchThreshold)
	assert.Equal(t, "euclidean", c.MatchMetric)
	assert.Equal(t, 3, c.RegisterPerMinute)
	assert.Equal(t, 5, c.LoginPerMinute)
	assert.Equal(t, 10, c.VerifyFacePerMinute)
	assert.Len(t, c.AllowedOrigins, 3)
	assert.False(t, c.TrustProxyHeaders)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty secret", func(c *Config) { c.JWTSecret = " " }},
		{"unknown algorithm", func(c *Config) { c.JWTAlgorithm = "RS256" }},
		{"zero lifetime", func(c *Config) { c.AccessTokenTTL = 0 }},
		{"zero threshold", func(c *Config) { c.MatchThreshold = 0 }},
		{"unknown metric", func(c *Config) { c.MatchMetric = "manhattan" }},
		{"confidence above one", func(c *Config) { c.MinFaceConfidence = 1.5 }},
		{"empty engine url", func(c *Config) { c.EngineURL = "" }},
		{"zero engine timeout", func(c *Config) { c.EngineTimeout = 0 }},
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"zero rate limit", func(c *Config) { c.LoginPerMinute = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_UsesDefaultsWithoutOverrides(t *testing.T) {
	c, err := LoadConfig(nil)
	require.NoError(t, err)
	require.NotNil(t, c)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want.HTTPAddr, c.HTTPAddr)
	assert.Equal(t, want.AccessTokenTTL, c.AccessTokenTTL)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"http_addr":  ":7000",
		"jwt_secret": "from-json",
		"log_level":  "warn",
	})
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadConfig([]string{"-c", path, "-l", "error"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", c.HTTPAddr, "json overrides defaults")
	assert.Equal(t, "from-env", c.JWTSecret, "env overrides json")
	assert.Equal(t, "error", c.LogLevel, "flags override env")
}

func TestLoadConfig_InvalidResult(t *testing.T) {
	_, err := LoadConfig([]string{"-t", "0"})
	require.Error(t, err)
}

func TestSplitOrigins(t *testing.T) {
	got := splitOrigins([]string{" http://a ", "http://b,http://c", ""})
	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, got)
}
