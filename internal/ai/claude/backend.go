package claude

import (
	"LLMRelay/internal/ai"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

const defaultMaxTokens = 1024

// Turn реплика в ролях Anthropic.
type Turn struct {
	Role anthropic.MessageParamRole
	Text string
}

// Prompt родной запрос Claude.
type Prompt struct {
	System string
	Turns  []Turn
}

type messagesAPI interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Backend struct {
	name     string
	settings ai.Settings
	messages messagesAPI
	logger   *zap.SugaredLogger
}

// New подходит как ai.Factory.
func New(_ context.Context, name string, s ai.Settings) (ai.Backend, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, errors.New("claude: api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return newBackend(name, s, &client.Messages), nil
}

func newBackend(name string, s ai.Settings, messages messagesAPI) *Backend {
	if s.MaxTokens <= 0 {
		s.MaxTokens = defaultMaxTokens
	}
	return &Backend{name: name, settings: s, messages: messages, logger: s.Log()}
}

func (b *Backend) Translate(thread []ai.Message, assistantTag, userTag string) (ai.Prompt, error) {
	p := Prompt{System: b.settings.Personality, Turns: make([]Turn, 0, len(thread))}
	for i, m := range thread {
		if err := ai.CheckMessage(i, m, assistantTag, userTag); err != nil {
			return nil, err
		}
		role := anthropic.MessageParamRoleUser
		if m.Role == assistantTag {
			role = anthropic.MessageParamRoleAssistant
		}
		p.Turns = append(p.Turns, Turn{Role: role, Text: m.Content})
	}
	return p, nil
}

func (b *Backend) params(p Prompt) anthropic.MessageNewParams {
	msgs := make([]anthropic.MessageParam, 0, len(p.Turns))
	for _, t := range p.Turns {
		if t.Role == anthropic.MessageParamRoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(t.Text)))
			continue
		}
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(t.Text)))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.settings.Model),
		MaxTokens: int64(b.settings.MaxTokens),
		Messages:  msgs,
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}
	return params
}

func (b *Backend) Generate(ctx context.Context, prompt ai.Prompt, _ ai.ProgressFunc) ai.Result {
	p, ok := prompt.(Prompt)
	if !ok {
		b.logger.Errorw("Неверный тип промпта", "backend", b.name)
		return ai.Text(ai.FallbackText)
	}

	start := time.Now()
	b.logger.Infow("Запрос в Claude...", "backend", b.name, "model", b.settings.Model, "turns", len(p.Turns))
	msg, err := b.messages.New(ctx, b.params(p))
	dur := time.Since(start)
	if err != nil {
		b.logger.Errorw("Ошибка ответа Claude", "duration", dur.String(), "error", err)
		return ai.Text(ai.FallbackText)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := sb.String()
	b.logger.Infow("Ответ Claude получен", "duration", dur.String(), "stop_reason", msg.StopReason)
	if strings.TrimSpace(text) == "" {
		return ai.Text(ai.FallbackText)
	}
	return b.settings.Reply(text, "Claude")
}
