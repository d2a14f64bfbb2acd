package gemini

import (
	"LLMRelay/internal/ai"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Prompt родной запрос Gemini.
type Prompt struct {
	System   string
	Contents []*genai.Content
}

// contentAPI — то, что нужно от genai.Models.
type contentAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Backend struct {
	name     string
	settings ai.Settings
	models   contentAPI
	logger   *zap.SugaredLogger
}

// New подходит как ai.Factory.
func New(ctx context.Context, name string, s ai.Settings) (ai.Backend, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      s.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: s.BaseURL},
	})
	if err != nil {
		return nil, err
	}
	return newBackend(name, s, client.Models), nil
}

func newBackend(name string, s ai.Settings, models contentAPI) *Backend {
	return &Backend{name: name, settings: s, models: models, logger: s.Log()}
}

func (b *Backend) Translate(thread []ai.Message, assistantTag, userTag string) (ai.Prompt, error) {
	p := Prompt{System: b.settings.Personality, Contents: make([]*genai.Content, 0, len(thread))}
	for i, m := range thread {
		if err := ai.CheckMessage(i, m, assistantTag, userTag); err != nil {
			return nil, err
		}
		role := genai.Role(genai.RoleUser)
		if m.Role == assistantTag {
			role = genai.RoleModel
		}
		p.Contents = append(p.Contents, genai.NewContentFromText(m.Content, role))
	}
	return p, nil
}

func (b *Backend) Generate(ctx context.Context, prompt ai.Prompt, _ ai.ProgressFunc) ai.Result {
	p, ok := prompt.(Prompt)
	if !ok {
		b.logger.Errorw("Неверный тип промпта", "backend", b.name)
		return ai.Text(ai.FallbackText)
	}

	var config *genai.GenerateContentConfig
	if p.System != "" {
		config = &genai.GenerateContentConfig{SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser)}
	}

	start := time.Now()
	b.logger.Infow("Запрос в Gemini...", "backend", b.name, "model", b.settings.Model, "turns", len(p.Contents))
	resp, err := b.models.GenerateContent(ctx, b.settings.Model, p.Contents, config)
	dur := time.Since(start)
	if err != nil {
		b.logger.Errorw("Ошибка ответа Gemini", "duration", dur.String(), "error", err)
		return ai.Text(ai.FallbackText)
	}

	text := resp.Text()
	b.logger.Infow("Ответ Gemini получен", "duration", dur.String(), "len", len(text))
	if strings.TrimSpace(text) == "" {
		return ai.Text(ai.FallbackText)
	}
	return b.settings.Reply(text, "Gemini")
}
