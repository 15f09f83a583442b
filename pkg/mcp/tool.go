package mcp

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Observation prefixes handed back to the reasoning loop.
const (
	prefixServerError = "Error from MCP server: "
	prefixTransport   = "Error connecting to MCP server: "
	prefixMalformed   = "Malformed response from MCP server: "
	prefixInvalidArgs = "Invalid arguments for tool "
)

// Caller performs one remote tool call. *Client implements it.
type Caller interface {
	CallTool(ctx context.Context, name string, args Arguments) (string, error)
}

// Tool binds a discovered descriptor to a Caller. Every invocation yields a
// string observation; errors never leave the tool.
type Tool struct {
	descriptor ToolDescriptor
	caller     Caller
	policy     UnparsedPolicy
	logger     *zap.Logger
}

// ToolOption configures a Tool.
type ToolOption func(*Tool)

// WithUnparsedPolicy sets how non-object string input is handled.
func WithUnparsedPolicy(p UnparsedPolicy) ToolOption {
	return func(t *Tool) {
		if p != "" {
			t.policy = p
		}
	}
}

// WithToolLogger injects a logger dependency.
func WithToolLogger(l *zap.Logger) ToolOption {
	return func(t *Tool) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTool wraps descriptor so it can be invoked through caller.
func NewTool(descriptor ToolDescriptor, caller Caller, opts ...ToolOption) *Tool {
	t := &Tool{
		descriptor: descriptor,
		caller:     caller,
		policy:     PolicyDrop,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Name returns the remote tool name.
func (t *Tool) Name() string { return t.descriptor.Name }

// Description returns the server-provided description.
func (t *Tool) Description() string { return t.descriptor.Description }

// Descriptor returns a copy of the discovered descriptor.
func (t *Tool) Descriptor() ToolDescriptor { return t.descriptor }

// Run invokes the tool with a single string input, as the agent loop does.
func (t *Tool) Run(ctx context.Context, input string) string {
	return t.Invoke(ctx, input, nil)
}

// Invoke normalizes input and named into an argument set, calls the server
// and returns the observation.
func (t *Tool) Invoke(ctx context.Context, input any, named Arguments) string {
	name := t.descriptor.Name
	args, err := NormalizeArguments(name, input, named)

	var unparsed *UnparsedInputError
	if errors.As(err, &unparsed) {
		if t.policy == PolicyReject {
			t.logger.Warn("rejected unparsed tool input", zap.String("tool", name), zap.String("input", unparsed.Raw))
			return prefixInvalidArgs + name + ": " + unparsed.Error()
		}
		t.logger.Warn("dropped unparsed tool input", zap.String("tool", name), zap.String("input", unparsed.Raw))
	}

	if t.caller == nil {
		return prefixTransport + "no client configured"
	}
	text, err := t.caller.CallTool(ctx, name, args)
	if err != nil {
		return t.observe(err)
	}
	return text
}

func (t *Tool) observe(err error) string {
	name := zap.String("tool", t.descriptor.Name)

	var rpcErr *RPCError
	var malformed *MalformedResponseError
	switch {
	case errors.As(err, &rpcErr):
		if errors.Is(err, ErrToolNotFound) {
			t.logger.Warn("tool not found on server", name, zap.String("message", rpcErr.Message))
		} else {
			t.logger.Info("tool returned an error", name, zap.Int("code", rpcErr.Code), zap.String("message", rpcErr.Message))
		}
		return prefixServerError + rpcErr.Message
	case errors.As(err, &malformed):
		t.logger.Warn("malformed tool response", name, zap.String("detail", malformed.Detail))
		return prefixMalformed + malformed.Detail
	default:
		t.logger.Warn("tool call failed", name, zap.Error(err))
		return prefixTransport + err.Error()
	}
}
