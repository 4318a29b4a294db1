// Package logging is the structured logger every facevault component takes.
// New picks the backend: slog for JSON/text output, zerolog for the console.
// Sensitive keys (passwords, images, tokens, vault fields) are masked by every
// backend before anything is written.
package logging

import "context"

// Logger takes a message plus alternating key/value args:
//
//	log.Info(ctx, "user registered", "user_id", u.ID)
//	log.Warn(ctx, "face engine unreachable", "url", url, "err", err)
//
// With returns a child that prefixes its pairs to every record, which is how
// components tag themselves ("component", "auth").
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
