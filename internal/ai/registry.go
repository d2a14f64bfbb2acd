package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Settings общие параметры, из которых фабрика собирает бэкенд.
// Каждая реализация берёт только то, что ей нужно.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	ImageModel  string
	MaxTokens   int
	Personality string
	// Подпись ответа; BotName пустой — без подписи.
	BotName string
	Version string
	// Потолок длины одного сообщения, длиннее — Chunks.
	MaxMessageLength int
	Logger           *zap.SugaredLogger
}

// Log возвращает логгер настроек или пустой, если он не задан.
func (s Settings) Log() *zap.SugaredLogger {
	if s.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return s.Logger
}

// Reply добавляет подпись источника и режет ответ под лимит сообщения.
func (s Settings) Reply(text, source string) Result {
	limit := s.MaxMessageLength
	if limit <= 0 {
		limit = MaxMessageLength
	}
	return Reply(text+Signature(s.BotName, s.Version, source, s.Model), limit)
}

// Factory создаёт бэкенд по имени и настройкам.
type Factory func(ctx context.Context, name string, s Settings) (Backend, error)

// Spec одна запись декларативного списка бэкендов.
type Spec struct {
	Name     string
	Factory  Factory
	Settings Settings
}

// Registry хранит сконфигурированные бэкенды по именам в порядке регистрации.
// Первый зарегистрированный — бэкенд по умолчанию.
type Registry struct {
	mu       sync.RWMutex
	names    []string
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// RegisterAll создаёт по одному бэкенду на запись, по порядку.
// Имена, совпадающие без учёта регистра, считаются дубликатами: роутинг по директивам их не различит.
func (r *Registry) RegisterAll(ctx context.Context, specs []Spec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return errors.New("backend name is required")
		}
		if spec.Factory == nil {
			return fmt.Errorf("backend %s: factory is required", name)
		}
		for _, existing := range r.names {
			if strings.EqualFold(existing, name) {
				return fmt.Errorf("backend %s already registered as %s", name, existing)
			}
		}
		b, err := spec.Factory(ctx, name, spec.Settings)
		if err != nil {
			return fmt.Errorf("backend %s: %w", name, err)
		}
		r.names = append(r.names, name)
		r.backends[name] = b
	}
	return nil
}

// Names возвращает имена в порядке регистрации.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Default имя первого зарегистрированного бэкенда или "".
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.names) == 0 {
		return ""
	}
	return r.names[0]
}

// Lookup возвращает бэкенд по точному имени.
func (r *Registry) Lookup(name string) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotFound, name)
	}
	return b, nil
}
