package logging

import "strings"

const redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"password":       {},
	"password_hash":  {},
	"image":          {},
	"image_base64":   {},
	"image_a_base64": {},
	"image_b_base64": {},
	"token":          {},
	"access_token":   {},
	"authorization":  {},
	"fields":         {},
	"secret":         {},
	"vault_key":      {},
	"embedding":      {},
}

// redact returns a copy of key–value args with sensitive values masked.
func redact(args []any) []any {
	if len(args) == 0 {
		return args
	}
	out := make([]any, len(args))
	copy(out, args)
	for i := 0; i+1 < len(out); i += 2 {
		k, ok := out[i].(string)
		if !ok {
			continue
		}
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[i+1] = redacted
		}
	}
	return out
}
