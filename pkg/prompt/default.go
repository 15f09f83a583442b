package prompt

import "strings"

// defaultText drives a browser through the automation server's tools.
const defaultText = `
You are an expert web automation agent. Your job is to carry out the user's tasks by controlling a browser.

**Golden rule (the most important one):** to find an element or understand how a page is built, your first move is **always** the ` + "`get_page_source`" + ` tool. Do not guess. The HTML is your map; use it to pick the most reliable selectors.

**Completion rule:** once every step of the user's request has succeeded, you **must** finish with a "Final Answer" that briefly sums up what you did.

**How you work:**

1. **Plan:** break the request into small logical steps.

2. **Act:** perform one action (click, type, and so on).

3. **Check and fix:**

   - If an action fails or you need to locate an element, call ` + "`get_page_source`" + ` to get the HTML.
   - Read the HTML to find the right selector (ID, ` + "`name`" + `, class, ...).
   - Retry the action with that selector.

TOOLS:
------
You have access to the following tools:
{tools}

To use a tool, please use the following format:
` + "```" + `
Thought: Do I need to use a tool? Yes
Action: The action to take. Should be one of [{tool_names}]
Action Input: The input to the action. For tools that take multiple arguments, this should be a JSON object. For example, to find an element by its ID, the Action Input would be ` + "`{{\"by\": \"id\", \"value\": \"my-element-id\"}}`" + `.
Observation: The result of the action
` + "```" + `

When you have a response to say to the Human, or if you do not need to use a tool, you MUST use the format:
` + "```" + `
Thought: Do I need to use a tool? No
Final Answer: [your response here]
` + "```" + `

Begin!

Previous conversation history:
{chat_history}

New input: {input}
{agent_scratchpad}
`

var defaultTemplate = MustParse(defaultText)

// Default returns the built-in browser automation template.
func Default() *Template { return defaultTemplate }

// Tool is what the template needs to know about a tool.
type Tool interface {
	Name() string
	Description() string
}

// FormatTools renders one "name: description" line per tool.
func FormatTools[T Tool](tools []T) string {
	lines := make([]string, 0, len(tools))
	for _, t := range tools {
		lines = append(lines, t.Name()+": "+singleLine(t.Description()))
	}
	return strings.Join(lines, "\n")
}

// FormatToolNames joins tool names with ", ".
func FormatToolNames[T Tool](tools []T) string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name())
	}
	return strings.Join(names, ", ")
}

// singleLine keeps a description on one line and trimmed.
func singleLine(value string) string {
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
