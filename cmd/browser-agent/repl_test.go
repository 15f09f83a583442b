package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhyannv/browser-agent-go/pkg/agent"
	"github.com/minhyannv/browser-agent-go/pkg/chat"
)

type fakeSession struct {
	inputs []string
	resets int
}

func (f *fakeSession) Turn(_ context.Context, input string) chat.Message {
	f.inputs = append(f.inputs, input)
	return chat.Message{Role: chat.RoleAssistant, Content: "echo: " + input}
}

func (f *fakeSession) Reset() { f.resets++ }

func (f *fakeSession) ID() string { return "session-1" }

type stubTool struct{ name, desc string }

func (s stubTool) Name() string                       { return s.name }
func (s stubTool) Description() string                { return s.desc }
func (s stubTool) Run(context.Context, string) string { return "" }

func TestREPLRunsTurnsAndSkipsBlankLines(t *testing.T) {
	session := &fakeSession{}
	var out bytes.Buffer

	err := runREPL(context.Background(), session, replOptions{}, strings.NewReader("open example.com\n\n   \nthanks\n"), &out)
	require.NoError(t, err)

	assert.Equal(t, []string{"open example.com", "thanks"}, session.inputs)
	assert.Contains(t, out.String(), "echo: open example.com\n\n")
	assert.Contains(t, out.String(), "echo: thanks\n\n")
}

func TestREPLCommands(t *testing.T) {
	session := &fakeSession{}
	var out bytes.Buffer
	opts := replOptions{Tools: []agent.Tool{stubTool{"navigate", "Open a URL"}}}

	err := runREPL(context.Background(), session, opts, strings.NewReader("/help\n/CLEAR\n/tools\n/bogus\n/quit\nnever sent\n"), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Empty(t, session.inputs)
	assert.Equal(t, 1, session.resets)
	assert.Contains(t, text, "1 browser tools available.")
	assert.Contains(t, text, "Conversation history cleared.")
	assert.Contains(t, text, "navigate")
	assert.Contains(t, text, "Open a URL")
	assert.Contains(t, text, "Unknown command: /bogus. Type /help for available commands.")
	assert.Contains(t, text, "Goodbye!")
}

func TestREPLWarnsWithoutTools(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runREPL(context.Background(), &fakeSession{}, replOptions{}, strings.NewReader("/t\n"), &out))
	assert.Contains(t, out.String(), "Warning: no tools were discovered")
	assert.Contains(t, out.String(), "No tools available.")
}

func TestREPLRequiresSessionAndInput(t *testing.T) {
	assert.Error(t, runREPL(context.Background(), nil, replOptions{}, strings.NewReader(""), nil))
	assert.Error(t, runREPL(context.Background(), &fakeSession{}, replOptions{}, nil, nil))
}
