// Package command parses operator-typed lines into registry mutations.
//
// Tokenizing follows shell quoting: a single-quoted token is taken
// literally, so JSON bodies containing double quotes can be passed as
// one argument, e.g.
//
//	endpoint add /status '{"ok": true}'
package command

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Kind discriminates parsed commands.
type Kind int

const (
	KindUnknown Kind = iota
	KindAdd
	KindDelete
	KindList
	KindHelp
)

// Command is the parsed form of one input line. It lives only for the
// duration of that line's processing.
type Command struct {
	Kind   Kind
	Method string // optional; empty means any method
	Path   string
	Body   string
	Raw    string // original line, kept for unknown-command reporting
}

// Usage is the help text shown for the help command.
const Usage = `commands:
  endpoint add [METHOD] <path> '<body>'   register or replace an endpoint
  endpoint delete [METHOD] <path>         remove an endpoint
  endpoint list [METHOD]                  show registered endpoints
  help                                    show this message
aliases: endpoint|ep, add|a|ad|u|up|update, delete|d|del, list|l
METHOD is one of GET POST PUT PATCH DELETE (optional, any case)`

var methods = map[string]string{
	"GET":    "GET",
	"POST":   "POST",
	"PUT":    "PUT",
	"PATCH":  "PATCH",
	"DELETE": "DELETE",
}

// parseMethod consumes an optional leading method token. Returns the
// canonical method (or "") and the remaining tokens.
func parseMethod(args []string) (string, []string) {
	if len(args) == 0 {
		return "", args
	}
	if m, ok := methods[strings.ToUpper(args[0])]; ok {
		return m, args[1:]
	}
	return "", args
}

// Parse turns one input line into a Command. A parse failure returns a
// human-readable error; unrecognized verbs return KindUnknown along
// with the error so callers can apply their unknown-command policy.
func Parse(line string) (Command, error) {
	raw := line
	tokens, err := shlex.Split(line)
	if err != nil {
		return Command{Kind: KindUnknown, Raw: raw}, fmt.Errorf("bad quoting: %v", err)
	}
	if len(tokens) == 0 {
		return Command{Kind: KindUnknown, Raw: raw}, fmt.Errorf("empty command")
	}

	switch strings.ToLower(tokens[0]) {
	case "help":
		return Command{Kind: KindHelp, Raw: raw}, nil
	case "endpoint", "ep":
		return parseEndpoint(tokens[1:], raw)
	default:
		return Command{Kind: KindUnknown, Raw: raw},
			fmt.Errorf("unknown command %q, try 'help'", tokens[0])
	}
}

func parseEndpoint(args []string, raw string) (Command, error) {
	if len(args) == 0 {
		return Command{Kind: KindUnknown, Raw: raw},
			fmt.Errorf("endpoint: missing action (add, delete, list)")
	}
	action, rest := strings.ToLower(args[0]), args[1:]
	switch action {
	case "add", "a", "ad", "u", "up", "update":
		method, rest := parseMethod(rest)
		if len(rest) != 2 {
			return Command{Kind: KindUnknown, Raw: raw},
				fmt.Errorf("endpoint add: want [METHOD] <path> <body>, got %d args", len(rest))
		}
		return Command{Kind: KindAdd, Method: method, Path: rest[0], Body: rest[1], Raw: raw}, nil
	case "delete", "d", "del":
		method, rest := parseMethod(rest)
		if len(rest) != 1 {
			return Command{Kind: KindUnknown, Raw: raw},
				fmt.Errorf("endpoint delete: want [METHOD] <path>, got %d args", len(rest))
		}
		return Command{Kind: KindDelete, Method: method, Path: rest[0], Raw: raw}, nil
	case "list", "l":
		method, rest := parseMethod(rest)
		if len(rest) != 0 {
			return Command{Kind: KindUnknown, Raw: raw},
				fmt.Errorf("endpoint list: want [METHOD], got extra args")
		}
		return Command{Kind: KindList, Method: method, Raw: raw}, nil
	default:
		return Command{Kind: KindUnknown, Raw: raw},
			fmt.Errorf("endpoint: unknown action %q", action)
	}
}
