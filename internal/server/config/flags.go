package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/facevault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   database DSN (postgres://... or sqlite://...)
//	-s string   JWT HMAC secret
//	-t int      access token validity, minutes
//	-k string   base64 vault key
//	-e string   face engine base URL
//	-l string   log level
//
// args are filtered with flagx.FilterArgs first, so -c/-config and unknown
// flags do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-k", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the http server")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port for grpc health checks")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "jwt secret")
	accessTokenMinutes := fs.Int("t", int(config.AccessTokenTTL/time.Minute), "access token validity (in minutes)")
	fs.StringVar(&config.VaultKey, "k", config.VaultKey, "base64 vault key")
	fs.StringVar(&config.EngineURL, "e", config.EngineURL, "face engine url")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenTTL = time.Duration(*accessTokenMinutes) * time.Minute
		}
	})
	return nil
}
