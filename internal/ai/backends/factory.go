// Package backends собирает декларативный список бэкендов из конфигурации.
package backends

import (
	"LLMRelay/internal/ai"
	"LLMRelay/internal/ai/chatgpt"
	"LLMRelay/internal/ai/claude"
	"LLMRelay/internal/ai/gemini"
	"LLMRelay/internal/config"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
	KindClaude = "claude"
	KindStub   = "stub"
)

// Specs превращает cfg.Backends в список для Registry.RegisterAll.
// Запись — "Name" (вид берётся из имени) или "Name=kind".
func Specs(cfg *config.Config, logger *zap.SugaredLogger) ([]ai.Spec, error) {
	specs := make([]ai.Spec, 0, len(cfg.Backends))
	for _, entry := range cfg.Backends {
		name, kind, err := parseEntry(entry)
		if err != nil {
			return nil, err
		}
		spec, err := build(cfg, name, kind, logger)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseEntry(entry string) (name, kind string, err error) {
	entry = strings.TrimSpace(entry)
	name, kind, found := strings.Cut(entry, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", fmt.Errorf("backend entry %q: empty name", entry)
	}
	if !found {
		return name, strings.ToLower(name), nil
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return "", "", fmt.Errorf("backend entry %q: empty kind", entry)
	}
	return name, kind, nil
}

func build(cfg *config.Config, name, kind string, logger *zap.SugaredLogger) (ai.Spec, error) {
	s := ai.Settings{
		Personality:      cfg.Personality,
		Version:          cfg.Version,
		MaxMessageLength: cfg.MaxMessageLength,
		Logger:           logger.With("backend", name),
	}
	if cfg.Signature {
		s.BotName = cfg.BotName
	}

	switch kind {
	case KindOpenAI, "chatgpt":
		s.APIKey, s.BaseURL = cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL
		s.Model, s.ImageModel = cfg.OpenAI.ChatModel, cfg.OpenAI.ImageModel
		return ai.Spec{Name: name, Factory: chatgpt.New, Settings: s}, nil
	case KindGemini:
		s.APIKey, s.BaseURL, s.Model = cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model
		return ai.Spec{Name: name, Factory: gemini.New, Settings: s}, nil
	case KindClaude:
		s.APIKey, s.BaseURL, s.Model = cfg.Claude.APIKey, cfg.Claude.BaseURL, cfg.Claude.Model
		s.MaxTokens = cfg.Claude.MaxTokens
		return ai.Spec{Name: name, Factory: claude.New, Settings: s}, nil
	case KindStub:
		return ai.Spec{Name: name, Factory: ai.NewStubBackend, Settings: s}, nil
	default:
		return ai.Spec{}, fmt.Errorf("backend %s: unknown kind %q", name, kind)
	}
}
