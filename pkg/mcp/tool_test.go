package mcp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingCaller struct {
	name  string
	args  Arguments
	calls int
	text  string
	err   error
}

func (r *recordingCaller) CallTool(_ context.Context, name string, args Arguments) (string, error) {
	r.calls++
	r.name = name
	r.args = args
	return r.text, r.err
}

func TestToolRunSuccessText(t *testing.T) {
	_, srv := newFakeServer(t)
	tool := NewTool(ToolDescriptor{Name: "navigate"}, NewClient(srv.URL))

	assert.Equal(t, "ok", tool.Run(context.Background(), "https://example.com"))
}

func TestToolRunServerError(t *testing.T) {
	f, srv := newFakeServer(t)
	f.reply = `{"error":{"message":"boom"}}`
	tool := NewTool(ToolDescriptor{Name: "click_element"}, NewClient(srv.URL))

	assert.Equal(t, "Error from MCP server: boom", tool.Run(context.Background(), `{"by":"id","value":"x"}`))
}

func TestToolRunToolNotFoundKeepsFlatObservation(t *testing.T) {
	f, srv := newFakeServer(t)
	f.status = http.StatusNotFound
	f.reply = `{"error":{"code":-32601,"message":"Tool not found: fly"}}`

	core, logs := observer.New(zap.WarnLevel)
	tool := NewTool(ToolDescriptor{Name: "fly"}, NewClient(srv.URL), WithToolLogger(zap.New(core)))

	assert.Equal(t, "Error from MCP server: Tool not found: fly", tool.Run(context.Background(), ""))
	assert.Equal(t, 1, logs.FilterMessage("tool not found on server").Len())
}

func TestToolRunConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	tool := NewTool(ToolDescriptor{Name: "navigate"}, NewClient(url))

	obs := tool.Run(context.Background(), "https://example.com")
	assert.True(t, strings.HasPrefix(obs, "Error connecting to MCP server: "), obs)
}

func TestToolRunMalformed(t *testing.T) {
	f, srv := newFakeServer(t)
	f.reply = `{"result":{}}`
	tool := NewTool(ToolDescriptor{Name: "get_page_source"}, NewClient(srv.URL))

	assert.Equal(t, "Malformed response from MCP server: missing result.content[0].text", tool.Run(context.Background(), ""))
}

func TestToolInvokeForwardsStructuredInput(t *testing.T) {
	caller := &recordingCaller{text: "done"}
	tool := NewTool(ToolDescriptor{Name: "find_element"}, caller)

	in := map[string]any{"by": "xpath", "value": "//a"}
	assert.Equal(t, "done", tool.Invoke(context.Background(), in, Arguments{"timeout": 100}))
	assert.Equal(t, "find_element", caller.name)
	assert.Equal(t, Arguments{"by": "xpath", "value": "//a", "timeout": 100}, caller.args)
}

func TestToolUnparsedInputDropPolicy(t *testing.T) {
	caller := &recordingCaller{text: "sent"}
	core, logs := observer.New(zap.WarnLevel)
	tool := NewTool(ToolDescriptor{Name: "send_keys"}, caller, WithToolLogger(zap.New(core)))

	assert.Equal(t, "sent", tool.Run(context.Background(), "hello"))
	assert.Equal(t, 1, caller.calls)
	assert.Equal(t, Arguments{}, caller.args)
	assert.Equal(t, 1, logs.FilterMessage("dropped unparsed tool input").Len())
}

func TestToolUnparsedInputRejectPolicy(t *testing.T) {
	caller := &recordingCaller{text: "sent"}
	tool := NewTool(ToolDescriptor{Name: "send_keys"}, caller, WithUnparsedPolicy(PolicyReject))

	obs := tool.Run(context.Background(), "hello")
	assert.True(t, strings.HasPrefix(obs, "Invalid arguments for tool send_keys: "), obs)
	assert.Zero(t, caller.calls)
}

func TestToolNeverPanicsOnUnknownError(t *testing.T) {
	caller := &recordingCaller{err: errors.New("weird")}
	tool := NewTool(ToolDescriptor{Name: "x"}, caller)

	assert.Equal(t, "Error connecting to MCP server: weird", tool.Run(context.Background(), ""))
}

func TestDiscoverWrapsTools(t *testing.T) {
	f, srv := newFakeServer(t)
	f.tools = `{"tools":[{"name":"navigate","description":"Go"},{"name":"navigate","description":"dup"},{"name":"","description":"blank"},{"name":"get_page_source","description":"HTML"}]}`

	tools := NewClient(srv.URL).Discover(context.Background(), WithUnparsedPolicy(PolicyReject))
	require.Len(t, tools, 2)
	assert.Equal(t, "navigate", tools[0].Name())
	assert.Equal(t, "Go", tools[0].Description())
	assert.Equal(t, PolicyReject, tools[1].policy)
	assert.Equal(t, "ok", tools[1].Run(context.Background(), ""))
}

func TestDiscoverUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	core, logs := observer.New(zap.ErrorLevel)
	tools := NewClient(url, WithLogger(zap.New(core))).Discover(context.Background())

	require.NotNil(t, tools)
	assert.Empty(t, tools)
	assert.Equal(t, 1, logs.Len())
}

func TestDiscoverBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	assert.Empty(t, NewClient(srv.URL).Discover(context.Background()))
}
