package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	action, finish, err := Parse("Thought: Do I need to use a tool? Yes\nAction: navigate\nAction Input: https://example.com")
	require.NoError(t, err)
	assert.Nil(t, finish)
	require.NotNil(t, action)
	assert.Equal(t, "navigate", action.Tool)
	assert.Equal(t, "https://example.com", action.Input)
}

func TestParseActionInputCleanup(t *testing.T) {
	cases := map[string]string{
		"quoted":       "Action: navigate\nAction Input: \"https://example.com\"",
		"backticks":    "Action: navigate\nAction Input: `https://example.com`",
		"hallucinated": "Action: navigate\nAction Input: https://example.com\nObservation: made up",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			action, _, err := Parse(text)
			require.NoError(t, err)
			assert.Equal(t, "https://example.com", action.Input)
		})
	}

	action, _, err := Parse("Action: `find_element`\nAction Input: ```json\n{\"by\": \"id\", \"value\": \"q\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "find_element", action.Tool)
	assert.Equal(t, `{"by": "id", "value": "q"}`, action.Input)
}

func TestParseFinalAnswer(t *testing.T) {
	_, finish, err := Parse("Thought: Do I need to use a tool? No\nFinal Answer: The page title is Example.\n")
	require.NoError(t, err)
	require.NotNil(t, finish)
	assert.Equal(t, "The page title is Example.", finish.Output)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		text        string
		observation string
	}{
		{"I am thinking about it", missingActionMessage},
		{"Thought: go\nAction: navigate", missingActionInputMessage},
		{"Action: navigate\nAction Input: x\nFinal Answer: done", invalidResponseMessage},
	}
	for _, tc := range cases {
		_, _, err := Parse(tc.text)
		var pe *ParseError
		require.ErrorAs(t, err, &pe, tc.text)
		assert.Equal(t, tc.observation, pe.Observation, tc.text)
		assert.Equal(t, tc.text, pe.Output)
	}
}
