package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse matches replies that carry neither an error nor
	// result.content[0].text.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrToolNotFound matches RPC errors the server uses for unknown tools.
	ErrToolNotFound = errors.New("tool not found")
)

// TransportError wraps failures below the JSON-RPC layer: refused
// connections, DNS, timeouts and non-2xx replies without an RPC error body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError describes what was wrong with a reply body.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Detail
}

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// RPCError is a JSON-RPC error object returned by the server.
type RPCError struct {
	Code    int
	Message string
	Data    []byte
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Is lets errors.Is(err, ErrToolNotFound) classify method-not-found replies.
func (e *RPCError) Is(target error) bool {
	return target == ErrToolNotFound && e.Code == CodeMethodNotFound
}

// UnparsedInputError reports string input that was not a JSON object and
// could not be mapped onto the tool's arguments.
type UnparsedInputError struct {
	Tool string
	Raw  string
}

func (e *UnparsedInputError) Error() string {
	return fmt.Sprintf("input for tool %s is not a JSON object: %q", e.Tool, e.Raw)
}
