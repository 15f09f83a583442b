// Tests for prompt rendering helpers.
package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubTool struct{ name, desc string }

func (s stubTool) Name() string        { return s.name }
func (s stubTool) Description() string { return s.desc }

// TestDefaultRender validates every placeholder is substituted.
func TestDefaultRender(t *testing.T) {
	tools := []stubTool{
		{name: "navigate", desc: "Navigate to a URL"},
		{name: "get_page_source", desc: "Return the page HTML\nfor inspection"},
	}
	out := Default().Render(Values{
		Tools:           FormatTools(tools),
		ToolNames:       FormatToolNames(tools),
		ChatHistory:     "Human: hi\nAI: hello",
		Input:           "open example.com",
		AgentScratchpad: "Thought: scratch",
	})

	if !containsAll(out, []string{
		"navigate: Navigate to a URL\nget_page_source: Return the page HTML for inspection",
		"Should be one of [navigate, get_page_source]",
		"Previous conversation history:\nHuman: hi\nAI: hello",
		"New input: open example.com\nThought: scratch",
		"get_page_source",
		`{"by": "id", "value": "my-element-id"}`,
	}) {
		t.Fatalf("rendered prompt missing expected content:\n%s", out)
	}
	if strings.Contains(out, "{tools}") || strings.Contains(out, "{{") {
		t.Fatalf("rendered prompt still has template syntax:\n%s", out)
	}
}

// TestParseRejectsUnknownPlaceholder ensures only the five names are accepted.
func TestParseRejectsUnknownPlaceholder(t *testing.T) {
	_, err := Parse("{tools} {tool_names} {chat_history} {input} {agent_scratchpad} {extra}")
	if err == nil || !strings.Contains(err.Error(), "{extra}") {
		t.Fatalf("expected unknown placeholder error, got %v", err)
	}
}

// TestParseRequiresAllPlaceholders ensures a template cannot drop one.
func TestParseRequiresAllPlaceholders(t *testing.T) {
	_, err := Parse("{tools} {tool_names} {input}")
	if err == nil {
		t.Fatal("expected missing placeholder error")
	}
	if !containsAll(err.Error(), []string{"{agent_scratchpad}", "{chat_history}"}) {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestParseBraces covers escapes and unbalanced braces.
func TestParseBraces(t *testing.T) {
	tpl, err := Parse("{{x}} {tools}{tool_names}{chat_history}{input}{agent_scratchpad}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := tpl.Render(Values{Input: "I"}); got != "{x} I" {
		t.Fatalf("unexpected render %q", got)
	}
	for _, bad := range []string{"{tools", "oops } {tools}"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

// TestLoad reads a replacement template from disk.
func TestLoad(t *testing.T) {
	tpl, err := Load("")
	if err != nil || tpl != Default() {
		t.Fatalf("empty path should return default, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "prompt.txt")
	text := "T={tools} N={tool_names} H={chat_history} I={input} S={agent_scratchpad}"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tpl, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := tpl.Render(Values{Tools: "a", ToolNames: "b", ChatHistory: "c", Input: "d", AgentScratchpad: "e"})
	if got != "T=a N=b H=c I=d S=e" {
		t.Fatalf("unexpected render %q", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// containsAll reports whether all substrings exist in text.
func containsAll(text string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(text, needle) {
			return false
		}
	}
	return true
}
