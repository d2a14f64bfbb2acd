package ai

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSpecs(names ...string) []Spec {
	specs := make([]Spec, 0, len(names))
	for _, n := range names {
		specs = append(specs, Spec{Name: n, Factory: NewStubBackend})
	}
	return specs
}

func TestRegistryOrderAndDefault(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Default())

	require.NoError(t, r.RegisterAll(context.Background(), stubSpecs("OpenAI", "Gemini", "Claude")))
	assert.Equal(t, []string{"OpenAI", "Gemini", "Claude"}, r.Names())
	assert.Equal(t, "OpenAI", r.Default())

	names := r.Names()
	names[0] = "changed"
	assert.Equal(t, "OpenAI", r.Names()[0])
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterAll(context.Background(), stubSpecs("Gemini")))

	b, err := r.Lookup("Gemini")
	require.NoError(t, err)
	assert.NotNil(t, b)

	_, err = r.Lookup("gemini")
	assert.ErrorIs(t, err, ErrBackendNotFound)
	_, err = r.Lookup("Mistral")
	assert.ErrorIs(t, err, ErrBackendNotFound)
}

func TestRegistryRejects(t *testing.T) {
	cases := map[string][]Spec{
		"duplicate":  stubSpecs("OpenAI", "openai"),
		"empty name": stubSpecs(" "),
		"no factory": {{Name: "X"}},
	}
	for name, specs := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, NewRegistry().RegisterAll(context.Background(), specs))
		})
	}
}

func TestRegistryFactoryError(t *testing.T) {
	boom := errors.New("no key")
	err := NewRegistry().RegisterAll(context.Background(), []Spec{{
		Name:    "Claude",
		Factory: func(context.Context, string, Settings) (Backend, error) { return nil, boom },
	}})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Claude")
}

func TestSettingsReply(t *testing.T) {
	s := Settings{Model: "m", BotName: "Bot", Version: "1", MaxMessageLength: 1000}
	assert.Equal(t, Text("hi\n\n_(Bot v1 Source: X Model m)_"), s.Reply("hi", "X"))

	s.BotName = ""
	assert.Equal(t, Text("hi"), s.Reply("hi", "X"))
}

func TestStubBackend(t *testing.T) {
	b, err := NewStubBackend(context.Background(), "Echo", Settings{})
	require.NoError(t, err)

	thread := []Message{{Role: "u", Content: "first"}, {Role: "a", Content: "reply"}, {Role: "u", Content: "last"}}
	p, err := b.Translate(thread, "a", "u")
	require.NoError(t, err)
	assert.Equal(t, Text("[Echo] запрос получен: last"), b.Generate(context.Background(), p, nil))

	_, err = b.Translate([]Message{{Role: "x", Content: "?"}}, "a", "u")
	assert.ErrorIs(t, err, ErrInvalidThreadFormat)

	assert.Equal(t, Text(FallbackText), b.Generate(context.Background(), 42, nil))
}

func TestTranslateIsRepeatable(t *testing.T) {
	b := &StubBackend{name: "Echo"}
	thread := []Message{
		{Role: "slack_user", Content: "hi"},
		{Role: "geppetto", Content: "hello"},
		{Role: "slack_user", Content: "llm_echo again"},
	}
	before := slices.Clone(thread)

	first, err := b.Translate(thread, "geppetto", "slack_user")
	require.NoError(t, err)
	second, err := b.Translate(thread, "geppetto", "slack_user")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, thread)
}
