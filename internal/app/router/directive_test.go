package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDirectives(t *testing.T) {
	assert.Equal(t, []string{"gemini"}, ParseDirectives("llm_Gemini, tell me a joke"))
	assert.Equal(t, []string{"openai", "claude"}, ParseDirectives("LLM_OPENAI or llm_claude?"))
	assert.Equal(t, []string{"gpt4"}, ParseDirectives("try llm_gpt4_"))
	assert.Empty(t, ParseDirectives("no directives here"))
	assert.Empty(t, ParseDirectives("llm_ alone"))
}

func TestSelectBackend(t *testing.T) {
	names := []string{"OpenAI", "Gemini", "Claude"}

	cases := []struct {
		name, text, current, want string
	}{
		{"default on new thread", "hello", "", "OpenAI"},
		{"explicit", "llm_gemini hello", "", "Gemini"},
		{"explicit mixed case", "hello LLM_CLAUDE.", "OpenAI", "Claude"},
		{"keep current", "and then?", "Gemini", "Gemini"},
		{"ambiguous", "llm_gemini or llm_claude", "Gemini", "OpenAI"},
		{"same name twice", "llm_gemini llm_Gemini", "", "Gemini"},
		{"unrecognized ignored", "llm_mistral hi", "Claude", "Claude"},
		{"unrecognized on new thread", "llm_mistral hi", "", "OpenAI"},
		{"one known one unknown", "llm_mistral llm_claude", "", "Claude"},
		{"current no longer registered", "hi", "Llama", "OpenAI"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SelectBackend(tc.text, names, tc.current))
		})
	}

	assert.Empty(t, SelectBackend("hi", nil, ""))
}

func TestParseCommand(t *testing.T) {
	for text, want := range map[string]bool{
		"llms":                 true,
		"<@U123> llms":         true,
		"llms please":          false,
		"what are llms":        false,
		"llms is the command":  false,
		"LLMS":                 false,
		"":                     false,
		"llm_gemini something": false,
	} {
		_, ok := parseCommand(text)
		assert.Equal(t, want, ok, text)
	}
}
