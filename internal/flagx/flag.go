// Package flagx splits the server's command line between parsers. The JSON
// config loader only wants -c/-config, the flag layer wants the address,
// database and secret flags; each takes its share with FilterArgs.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps the flags named in allowed, with their values, and drops
// everything else. Names match with one or two leading dashes, so "-d" also
// keeps "--d". Both "-d value" and "-d=value" are recognised; a following
// token that starts with "-" is never taken as a value. Parsing stops at "--".
//
// The result is never nil.
func FilterArgs(args []string, allowed []string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, f := range allowed {
		names[flagName(f)] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, inline := strings.Cut(arg, "=")
		if _, ok := names[flagName(name)]; !ok {
			continue
		}
		out = append(out, arg)
		if inline {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

func flagName(s string) string {
	return strings.TrimLeft(s, "-")
}

// ConfigPath returns the JSON config path given with -c or -config, or ""
// when none was passed. The rest of args is left for other parsers.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (shorthand)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
