package agent

import (
	"context"
	"fmt"
	"strings"
)

// Tool is a named action the model can pick. Run never fails: problems are
// reported in the returned observation.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) string
}

// Toolset holds registered tools in registration order.
type Toolset struct {
	registry map[string]Tool
	ordered  []Tool
}

// NewToolset registers tools. Later duplicates are ignored.
func NewToolset[T Tool](tools []T) *Toolset {
	t := &Toolset{registry: make(map[string]Tool, len(tools))}
	for _, tool := range tools {
		t.register(tool)
	}
	return t
}

func (t *Toolset) register(tool Tool) {
	if _, ok := t.registry[tool.Name()]; ok {
		return
	}
	t.registry[tool.Name()] = tool
	t.ordered = append(t.ordered, tool)
}

// Tools returns the registered tools.
func (t *Toolset) Tools() []Tool { return t.ordered }

// Len reports the number of registered tools.
func (t *Toolset) Len() int { return len(t.ordered) }

// Names returns tool names in registration order.
func (t *Toolset) Names() []string {
	names := make([]string, 0, len(t.ordered))
	for _, tool := range t.ordered {
		names = append(names, tool.Name())
	}
	return names
}

// Execute runs the named tool. An unknown name yields the hint the model
// needs to correct itself.
func (t *Toolset) Execute(ctx context.Context, name, input string) string {
	tool, ok := t.registry[name]
	if !ok {
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(t.Names(), ", "))
	}
	return tool.Run(ctx, input)
}
