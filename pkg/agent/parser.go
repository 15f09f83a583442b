package agent

import (
	"regexp"
	"strings"
)

const finalAnswerMarker = "Final Answer:"

// Observations fed back to the model when its output cannot be parsed.
const (
	missingActionMessage      = "Invalid Format: Missing 'Action:' after 'Thought:'"
	missingActionInputMessage = "Invalid Format: Missing 'Action Input:' after 'Action:'"
	invalidResponseMessage    = "Invalid or incomplete response"
)

var (
	actionRe       = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	actionOnlyRe   = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)`)
	actionInputRe  = regexp.MustCompile(`(?s)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
	codeFenceStart = regexp.MustCompile("^```[a-zA-Z]*\\s*")
)

// Action is a tool call chosen by the model.
type Action struct {
	Tool  string
	Input string
	// Log is the raw model output that produced the action.
	Log string
}

// Finish is the model's final answer.
type Finish struct {
	Output string
	Log    string
}

// ParseError reports model output that is neither an action nor a final
// answer. Observation is what the model is told when errors are handled.
type ParseError struct {
	Message     string
	Observation string
	Output      string
}

func (e *ParseError) Error() string { return e.Message }

// Parse reads one ReAct step. Exactly one of the results is non-nil.
func Parse(text string) (*Action, *Finish, error) {
	includesAnswer := strings.Contains(text, finalAnswerMarker)
	if m := actionRe.FindStringSubmatch(text); m != nil {
		if includesAnswer {
			return nil, nil, &ParseError{
				Message:     "Parsing LLM output produced both a final answer and a parse-able action: " + text,
				Observation: invalidResponseMessage,
				Output:      text,
			}
		}
		return &Action{
			Tool:  strings.Trim(strings.TrimSpace(m[1]), "`*"),
			Input: cleanInput(m[2]),
			Log:   text,
		}, nil, nil
	}
	if includesAnswer {
		parts := strings.Split(text, finalAnswerMarker)
		return nil, &Finish{Output: strings.TrimSpace(parts[len(parts)-1]), Log: text}, nil
	}

	switch {
	case !actionOnlyRe.MatchString(text):
		return nil, nil, &ParseError{Message: "Could not parse LLM output: `" + text + "`", Observation: missingActionMessage, Output: text}
	case !actionInputRe.MatchString(text):
		return nil, nil, &ParseError{Message: "Could not parse LLM output: `" + text + "`", Observation: missingActionInputMessage, Output: text}
	default:
		return nil, nil, &ParseError{Message: "Could not parse LLM output: `" + text + "`", Observation: invalidResponseMessage, Output: text}
	}
}

// cleanInput strips what models wrap around tool input: a trailing
// hallucinated observation, code fences, backticks and quotes.
func cleanInput(raw string) string {
	if i := strings.Index(raw, "\nObservation"); i >= 0 {
		raw = raw[:i]
	}
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = codeFenceStart.ReplaceAllString(s, "")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`")
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"`)
}
