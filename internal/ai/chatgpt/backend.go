package chatgpt

import (
	"LLMRelay/internal/ai"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"go.uber.org/zap"
)

const (
	toolGenerateImage     = "generate_image"
	toolGetFunctionalites = "get_functionalities"

	defaultImageSize = "1024x1024"
	imageTitle       = "Image"
)

var imageSizes = []string{"1024x1024", "1024x1792", "1792x1024"}

var functionalities = []string{
	"Generate an image from text",
	"Get app functionalities",
}

// Turn реплика в родных ролях OpenAI.
type Turn struct {
	Role    responses.EasyInputMessageRole
	Content string
}

// Prompt родной запрос OpenAI: системные инструкции + реплики.
type Prompt struct {
	Instructions string
	Turns        []Turn
}

// ToolCall вызов инструмента, который запросила модель.
type ToolCall struct {
	Name      string
	Arguments string
}

// Completion ответ модели: либо текст, либо вызов инструмента.
type Completion struct {
	Text string
	Call *ToolCall
}

type chatAPI interface {
	Complete(ctx context.Context, p Prompt) (Completion, error)
}

type imageAPI interface {
	Draw(ctx context.Context, prompt, size string) ([]byte, error)
}

// Backend бэкенд OpenAI: текст через Responses API, картинки через инструмент generate_image.
type Backend struct {
	name     string
	settings ai.Settings
	chat     chatAPI
	images   imageAPI
	logger   *zap.SugaredLogger
}

// New подходит как ai.Factory.
func New(_ context.Context, name string, s ai.Settings) (ai.Backend, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	client := newClient(s)
	return newBackend(name, s, &sdkChat{client: client, model: openai.ChatModel(s.Model)}, &sdkImages{client: client, model: s.ImageModel}), nil
}

func newBackend(name string, s ai.Settings, chat chatAPI, images imageAPI) *Backend {
	return &Backend{name: name, settings: s, chat: chat, images: images, logger: s.Log()}
}

func (b *Backend) Translate(thread []ai.Message, assistantTag, userTag string) (ai.Prompt, error) {
	p := Prompt{Instructions: b.settings.Personality, Turns: make([]Turn, 0, len(thread))}
	for i, m := range thread {
		if err := ai.CheckMessage(i, m, assistantTag, userTag); err != nil {
			return nil, err
		}
		role := responses.EasyInputMessageRoleUser
		if m.Role == assistantTag {
			role = responses.EasyInputMessageRoleAssistant
		}
		p.Turns = append(p.Turns, Turn{Role: role, Content: m.Content})
	}
	return p, nil
}

func (b *Backend) Generate(ctx context.Context, prompt ai.Prompt, progress ai.ProgressFunc) ai.Result {
	p, ok := prompt.(Prompt)
	if !ok {
		b.logger.Errorw("Неверный тип промпта", "backend", b.name)
		return ai.Text(ai.FallbackText)
	}

	start := time.Now()
	b.logger.Infow("Запрос в OpenAI...", "backend", b.name, "turns", len(p.Turns))
	c, err := b.chat.Complete(ctx, p)
	dur := time.Since(start)
	if err != nil {
		b.logger.Errorw("Ошибка ответа OpenAI", "duration", dur.String(), "error", err)
		return ai.Text(ai.FallbackText)
	}
	b.logger.Infow("Ответ OpenAI получен", "duration", dur.String(), "tool", c.Call != nil)

	if c.Call != nil {
		return b.runTool(ctx, *c.Call, progress)
	}
	if strings.TrimSpace(c.Text) == "" {
		return ai.Text(ai.FallbackText)
	}
	return b.settings.Reply(c.Text, "OpenAI")
}

type imageArgs struct {
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

// runTool выполняет вызов инструмента; для картинки это второй сетевой запрос.
func (b *Backend) runTool(ctx context.Context, call ToolCall, progress ai.ProgressFunc) ai.Result {
	switch call.Name {
	case toolGenerateImage:
		var args imageArgs
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Prompt) == "" {
			b.logger.Errorw("Некорректные аргументы generate_image", "arguments", call.Arguments, "error", err)
			return ai.Text(ai.FallbackText)
		}
		if !slices.Contains(imageSizes, args.Size) {
			args.Size = defaultImageSize
		}

		progress.Notify(ai.ProgressImage)
		b.logger.Infow("Generating image", "prompt", args.Prompt, "size", args.Size)
		data, err := b.images.Draw(ctx, args.Prompt, args.Size)
		if err != nil {
			b.logger.Errorw("Error generating image", "error", err)
			return ai.Text(ai.FallbackText)
		}
		return ai.Image{Data: data, Title: imageTitle}
	case toolGetFunctionalites:
		return b.settings.Reply("- "+strings.Join(functionalities, "\n- "), "OpenAI")
	default:
		b.logger.Warnw("Неизвестный инструмент", "tool", call.Name)
		return ai.Text(ai.FallbackText)
	}
}
