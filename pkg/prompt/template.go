// Package prompt renders the ReAct instruction text sent to the model.
package prompt

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Placeholder names. A template must use every one of them and nothing else.
const (
	Tools           = "tools"
	ToolNames       = "tool_names"
	ChatHistory     = "chat_history"
	Input           = "input"
	AgentScratchpad = "agent_scratchpad"
)

var placeholders = []string{Tools, ToolNames, ChatHistory, Input, AgentScratchpad}

// Values fills the placeholders of a Template.
type Values struct {
	Tools           string
	ToolNames       string
	ChatHistory     string
	Input           string
	AgentScratchpad string
}

func (v Values) lookup(name string) string {
	switch name {
	case Tools:
		return v.Tools
	case ToolNames:
		return v.ToolNames
	case ChatHistory:
		return v.ChatHistory
	case Input:
		return v.Input
	case AgentScratchpad:
		return v.AgentScratchpad
	}
	return ""
}

// segment is literal text, or a placeholder when name is set.
type segment struct {
	text string
	name string
}

// Template is a parsed instruction text. Placeholders are written {name};
// literal braces are doubled, so {{"by": "id"}} renders as {"by": "id"}.
type Template struct {
	segments []segment
}

// Parse validates text and returns a Template.
func Parse(text string) (*Template, error) {
	var (
		segs []segment
		lit  strings.Builder
		seen = map[string]bool{}
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := text[i+1 : i+1+end]
			if !known(name) {
				return nil, fmt.Errorf("unknown placeholder {%s}", name)
			}
			if lit.Len() > 0 {
				segs = append(segs, segment{text: lit.String()})
				lit.Reset()
			}
			segs = append(segs, segment{name: name})
			seen[name] = true
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("single '}' at offset %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{text: lit.String()})
	}

	var missing []string
	for _, p := range placeholders {
		if !seen[p] {
			missing = append(missing, "{"+p+"}")
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("template is missing %s", strings.Join(missing, ", "))
	}
	return &Template{segments: segs}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a template file. An empty path yields Default.
func Load(path string) (*Template, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt: %w", err)
	}
	t, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", path, err)
	}
	return t, nil
}

// Render substitutes v into the template.
func (t *Template) Render(v Values) string {
	var sb strings.Builder
	for _, s := range t.segments {
		if s.name != "" {
			sb.WriteString(v.lookup(s.name))
			continue
		}
		sb.WriteString(s.text)
	}
	return sb.String()
}

func known(name string) bool {
	for _, p := range placeholders {
		if p == name {
			return true
		}
	}
	return false
}
