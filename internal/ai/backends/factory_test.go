package backends

import (
	"LLMRelay/internal/ai"
	"LLMRelay/internal/config"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSpecs(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backends = []string{"OpenAI", " Gemini ", "Sonnet=claude", "Echo=STUB"}
	cfg.Claude.MaxTokens = 2048

	specs, err := Specs(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.Len(t, specs, 4)

	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
		assert.NotNil(t, s.Factory)
	}
	assert.Equal(t, []string{"OpenAI", "Gemini", "Sonnet", "Echo"}, names)
	assert.Equal(t, cfg.OpenAI.ChatModel, specs[0].Settings.Model)
	assert.Equal(t, cfg.OpenAI.ImageModel, specs[0].Settings.ImageModel)
	assert.Equal(t, cfg.Gemini.Model, specs[1].Settings.Model)
	assert.Equal(t, 2048, specs[2].Settings.MaxTokens)
	assert.Equal(t, "Geppetto", specs[0].Settings.BotName)
}

func TestSpecsWithoutSignature(t *testing.T) {
	cfg := config.Defaults()
	cfg.Signature = false
	cfg.Backends = []string{"Echo=stub"}

	specs, err := Specs(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Empty(t, specs[0].Settings.BotName)
}

func TestSpecsErrors(t *testing.T) {
	for _, entries := range [][]string{
		{"Llama"},
		{"=openai"},
		{"Echo="},
	} {
		cfg := config.Defaults()
		cfg.Backends = entries
		_, err := Specs(cfg, zaptest.NewLogger(t).Sugar())
		assert.Error(t, err, entries)
	}
}

func TestSpecsRegisterStub(t *testing.T) {
	cfg := config.Defaults()
	cfg.Backends = []string{"First=stub", "Second=stub"}

	specs, err := Specs(cfg, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	reg := ai.NewRegistry()
	require.NoError(t, reg.RegisterAll(context.Background(), specs))
	assert.Equal(t, "First", reg.Default())
	assert.Equal(t, []string{"First", "Second"}, reg.Names())
}
