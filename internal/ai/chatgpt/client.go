package chatgpt

import (
	"LLMRelay/internal/ai"
	"context"
	"encoding/base64"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

func newClient(s ai.Settings) *openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &client
}

// sdkChat ходит в Responses API.
type sdkChat struct {
	client *openai.Client
	model  openai.ChatModel
}

func (c *sdkChat) Complete(ctx context.Context, p Prompt) (Completion, error) {
	items := make(responses.ResponseInputParam, 0, len(p.Turns))
	for _, t := range p.Turns {
		items = append(items, responses.ResponseInputItemParamOfMessage(t.Content, t.Role))
	}

	params := responses.ResponseNewParams{
		Model: c.model,
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
		Tools: tools(),
	}
	if p.Instructions != "" {
		params.Instructions = openai.String(p.Instructions)
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Completion{}, err
	}

	// Берём первый вызов инструмента, остальные игнорируем.
	for _, item := range resp.Output {
		if item.Type == "function_call" {
			call := item.AsFunctionCall()
			return Completion{Call: &ToolCall{Name: call.Name, Arguments: call.Arguments}}, nil
		}
	}
	return Completion{Text: resp.OutputText()}, nil
}

func tools() []responses.ToolUnionParam {
	image := responses.ToolParamOfFunction(toolGenerateImage, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{"type": "string"},
			"size":   map[string]any{"type": "string", "enum": imageSizes},
		},
		"required": []string{"prompt"},
	}, false)
	image.OfFunction.Description = openai.String("Generate an image from text")

	info := responses.ToolParamOfFunction(toolGetFunctionalites, map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, false)
	info.OfFunction.Description = openai.String("Get app functionalities")

	return []responses.ToolUnionParam{image, info}
}

// sdkImages рисует картинки через Images API и возвращает байты.
type sdkImages struct {
	client *openai.Client
	model  string
}

func (c *sdkImages) Draw(ctx context.Context, prompt, size string) ([]byte, error) {
	resp, err := c.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          openai.ImageModel(c.model),
		Size:           openai.ImageGenerateParamsSize(size),
		Quality:        openai.ImageGenerateParamsQualityStandard,
		N:              openai.Int(1),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("openai: empty image response")
	}
	return base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
}
