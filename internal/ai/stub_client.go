package ai

import (
	"context"
	"fmt"
)

// StubBackend заглушка, которая не делает реальных запросов: отвечает эхом последней реплики пользователя.
type StubBackend struct {
	name string
}

// NewStubBackend подходит как Factory.
func NewStubBackend(_ context.Context, name string, _ Settings) (Backend, error) {
	return &StubBackend{name: name}, nil
}

// Translate проверяет формат треда и возвращает его копию.
func (c *StubBackend) Translate(thread []Message, assistantTag, userTag string) (Prompt, error) {
	out := make([]Message, 0, len(thread))
	for i, m := range thread {
		if err := CheckMessage(i, m, assistantTag, userTag); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *StubBackend) Generate(_ context.Context, prompt Prompt, _ ProgressFunc) Result {
	thread, ok := prompt.([]Message)
	if !ok || len(thread) == 0 {
		return Text(FallbackText)
	}
	return Text(fmt.Sprintf("[%s] запрос получен: %s", c.name, thread[len(thread)-1].Content))
}

// CheckMessage проверяет одну реплику треда перед переводом в родной формат.
func CheckMessage(i int, m Message, assistantTag, userTag string) error {
	switch {
	case m.Role == "":
		return fmt.Errorf("%w: message %d has no role", ErrInvalidThreadFormat, i)
	case m.Role != assistantTag && m.Role != userTag:
		return fmt.Errorf("%w: message %d has unknown role %q", ErrInvalidThreadFormat, i, m.Role)
	case m.Content == "":
		return fmt.Errorf("%w: message %d has no content", ErrInvalidThreadFormat, i)
	}
	return nil
}
