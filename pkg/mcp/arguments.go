package mcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NavigateTool takes a bare string as its url argument.
const NavigateTool = "navigate"

// UnparsedPolicy decides what happens to string input that is not a JSON object.
type UnparsedPolicy string

const (
	// PolicyDrop sends an empty argument set and logs a warning.
	PolicyDrop UnparsedPolicy = "drop"
	// PolicyReject skips the call and reports the input back as the observation.
	PolicyReject UnparsedPolicy = "reject"
)

// ParseUnparsedPolicy maps a config value onto a policy. Empty means drop.
func ParseUnparsedPolicy(s string) (UnparsedPolicy, error) {
	switch UnparsedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyReject:
		return PolicyReject, nil
	default:
		return "", fmt.Errorf("unknown unparsed input policy %q", s)
	}
}

// NormalizeArguments turns loosely typed agent input into the argument set
// for tool:
//
//   - a mapping is used as is;
//   - a string holding a JSON object is decoded;
//   - any other string becomes {"url": s} for navigate, and an empty set
//     plus an *UnparsedInputError for every other tool;
//   - named arguments are merged on top.
//
// Numbers are decoded as json.Number so they are forwarded unmodified.
func NormalizeArguments(tool string, input any, named Arguments) (Arguments, error) {
	args, err := positional(tool, input)
	if args == nil {
		args = Arguments{}
	}
	for k, v := range named {
		args[k] = v
	}
	return args, err
}

func positional(tool string, input any) (Arguments, error) {
	switch v := input.(type) {
	case nil:
		return Arguments{}, nil
	case Arguments:
		return clone(v), nil
	case map[string]any:
		return clone(v), nil
	case string:
		return fromString(tool, v)
	case []byte:
		return fromString(tool, string(v))
	case json.RawMessage:
		return fromString(tool, string(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Arguments{}, &UnparsedInputError{Tool: tool, Raw: fmt.Sprint(v)}
		}
		return fromString(tool, string(data))
	}
}

func fromString(tool, raw string) (Arguments, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" && tool != NavigateTool {
		return Arguments{}, nil
	}

	var decoded any
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err == nil && !dec.More() {
		switch d := decoded.(type) {
		case map[string]any:
			return Arguments(d), nil
		case string:
			raw = d
		}
	}

	if tool == NavigateTool {
		return Arguments{"url": raw}, nil
	}
	return Arguments{}, &UnparsedInputError{Tool: tool, Raw: raw}
}

func clone(m map[string]any) Arguments {
	out := make(Arguments, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
