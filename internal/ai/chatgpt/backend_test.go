package chatgpt

import (
	"LLMRelay/internal/ai"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChat struct {
	got  Prompt
	resp Completion
	err  error
}

func (f *fakeChat) Complete(_ context.Context, p Prompt) (Completion, error) {
	f.got = p
	return f.resp, f.err
}

type fakeImages struct {
	prompt, size string
	data         []byte
	err          error
}

func (f *fakeImages) Draw(_ context.Context, prompt, size string) ([]byte, error) {
	f.prompt, f.size = prompt, size
	return f.data, f.err
}

func testBackend(t *testing.T, chat chatAPI, images imageAPI) *Backend {
	t.Helper()
	return newBackend("OpenAI", ai.Settings{
		Model:       "gpt-4o",
		Personality: "be nice",
		Logger:      zaptest.NewLogger(t).Sugar(),
	}, chat, images)
}

func TestTranslate(t *testing.T) {
	b := testBackend(t, &fakeChat{}, &fakeImages{})

	p, err := b.Translate([]ai.Message{
		{Role: "slack_user", Content: "hi"},
		{Role: "geppetto", Content: "hello"},
		{Role: "slack_user", Content: "draw"},
	}, "geppetto", "slack_user")
	require.NoError(t, err)

	prompt, ok := p.(Prompt)
	require.True(t, ok)
	assert.Equal(t, "be nice", prompt.Instructions)
	assert.Equal(t, []Turn{
		{Role: responses.EasyInputMessageRoleUser, Content: "hi"},
		{Role: responses.EasyInputMessageRoleAssistant, Content: "hello"},
		{Role: responses.EasyInputMessageRoleUser, Content: "draw"},
	}, prompt.Turns)
}

func TestTranslateRejectsUnknownRole(t *testing.T) {
	b := testBackend(t, &fakeChat{}, &fakeImages{})

	_, err := b.Translate([]ai.Message{{Role: "system", Content: "x"}}, "geppetto", "slack_user")
	assert.ErrorIs(t, err, ai.ErrInvalidThreadFormat)

	_, err = b.Translate([]ai.Message{{Role: "slack_user"}}, "geppetto", "slack_user")
	assert.ErrorIs(t, err, ai.ErrInvalidThreadFormat)
}

func TestGenerateText(t *testing.T) {
	chat := &fakeChat{resp: Completion{Text: "answer"}}
	b := testBackend(t, chat, &fakeImages{})

	res := b.Generate(context.Background(), Prompt{Turns: []Turn{{Role: responses.EasyInputMessageRoleUser, Content: "q"}}}, nil)
	assert.Equal(t, ai.Text("answer"), res)
	assert.Len(t, chat.got.Turns, 1)
}

func TestGenerateFallbacks(t *testing.T) {
	cases := []struct {
		name   string
		chat   *fakeChat
		prompt ai.Prompt
	}{
		{name: "error", chat: &fakeChat{err: errors.New("boom")}, prompt: Prompt{}},
		{name: "empty", chat: &fakeChat{resp: Completion{Text: "  "}}, prompt: Prompt{}},
		{name: "wrong prompt", chat: &fakeChat{}, prompt: "text"},
		{name: "unknown tool", chat: &fakeChat{resp: Completion{Call: &ToolCall{Name: "weather"}}}, prompt: Prompt{}},
		{name: "bad arguments", chat: &fakeChat{resp: Completion{Call: &ToolCall{Name: toolGenerateImage, Arguments: "{"}}}, prompt: Prompt{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := testBackend(t, tc.chat, &fakeImages{})
			assert.Equal(t, ai.Text(ai.FallbackText), b.Generate(context.Background(), tc.prompt, nil))
		})
	}
}

func TestGenerateImage(t *testing.T) {
	chat := &fakeChat{resp: Completion{Call: &ToolCall{
		Name:      toolGenerateImage,
		Arguments: `{"prompt":"a cat","size":"512x512"}`,
	}}}
	images := &fakeImages{data: []byte{0x89, 0x50, 0x4e, 0x47}}
	b := testBackend(t, chat, images)

	var progress []ai.Progress
	res := b.Generate(context.Background(), Prompt{}, func(p ai.Progress) { progress = append(progress, p) })

	assert.Equal(t, ai.Image{Data: images.data, Title: "Image"}, res)
	assert.Equal(t, []ai.Progress{ai.ProgressImage}, progress)
	assert.Equal(t, "a cat", images.prompt)
	assert.Equal(t, defaultImageSize, images.size)
}

func TestGenerateImageFailure(t *testing.T) {
	chat := &fakeChat{resp: Completion{Call: &ToolCall{Name: toolGenerateImage, Arguments: `{"prompt":"a cat","size":"1792x1024"}`}}}
	images := &fakeImages{err: errors.New("quota")}
	b := testBackend(t, chat, images)

	res := b.Generate(context.Background(), Prompt{}, nil)
	assert.Equal(t, ai.Text(ai.FallbackText), res)
	assert.Equal(t, "1792x1024", images.size)
}

func TestGenerateFunctionalities(t *testing.T) {
	chat := &fakeChat{resp: Completion{Call: &ToolCall{Name: toolGetFunctionalites, Arguments: "{}"}}}
	b := testBackend(t, chat, &fakeImages{})

	res := b.Generate(context.Background(), Prompt{}, nil)
	text, ok := res.(ai.Text)
	require.True(t, ok)
	assert.Contains(t, string(text), "Generate an image from text")
}

func TestGenerateSignature(t *testing.T) {
	b := newBackend("OpenAI", ai.Settings{Model: "gpt-4o", BotName: "Geppetto", Version: "0.2.0"}, &fakeChat{resp: Completion{Text: "hi"}}, &fakeImages{})

	res := b.Generate(context.Background(), Prompt{}, nil)
	assert.Equal(t, ai.Text("hi\n\n_(Geppetto v0.2.0 Source: OpenAI Model gpt-4o)_"), res)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), "OpenAI", ai.Settings{})
	assert.Error(t, err)
}

func TestTranslateIsRepeatable(t *testing.T) {
	b := testBackend(t, &fakeChat{}, &fakeImages{})
	thread := []ai.Message{
		{Role: "slack_user", Content: "hi"},
		{Role: "geppetto", Content: "hello"},
		{Role: "slack_user", Content: "llm_openai again"},
	}
	before := slices.Clone(thread)

	first, err := b.Translate(thread, "geppetto", "slack_user")
	require.NoError(t, err)
	second, err := b.Translate(thread, "geppetto", "slack_user")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, thread)
}
