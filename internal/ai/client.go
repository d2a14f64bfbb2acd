package ai

import (
	"context"
	"errors"
)

var (
	// ErrInvalidThreadFormat — в истории треда есть сообщение без роли или без текста.
	// Это нарушение контракта, а не рабочая ситуация.
	ErrInvalidThreadFormat = errors.New("invalid thread format")
	// ErrBackendNotFound — запрошенный бэкенд не зарегистрирован.
	ErrBackendNotFound = errors.New("backend not found")
)

// FallbackText отдаётся вместо ответа, если бэкенд не смог его сгенерировать.
const FallbackText = "I'm sorry, I couldn't generate a response at this time. Try using another AI model."

// Message одна реплика треда. Role — тег роли интерфейса (например slack_user/geppetto),
// в родные роли бэкенда его переводит Translate.
type Message struct {
	Role    string
	Content string
}

// Prompt — запрос в родном для бэкенда виде. Конкретный тип знает только сам бэкенд.
type Prompt any

// Progress тип промежуточного статуса долгой генерации.
type Progress string

const (
	// ProgressImage — бэкенд ушёл рисовать картинку.
	ProgressImage Progress = "image"
)

// ProgressFunc вызывается бэкендом, чтобы показать промежуточный статус.
type ProgressFunc func(Progress)

// Backend интерфейс для взаимодействия с AI. Все реализации должны быть взаимозаменяемыми.
type Backend interface {
	// Translate переводит историю треда в родной формат бэкенда. Вход не меняет.
	Translate(thread []Message, assistantTag, userTag string) (Prompt, error)

	// Generate выполняет запрос. Ошибки бэкенда не возвращаются: вместо них приходит Text(FallbackText).
	Generate(ctx context.Context, prompt Prompt, progress ProgressFunc) Result
}

// Result — ответ бэкенда: Text, Chunks или Image.
type Result interface {
	isResult()
}

// Text обычный текстовый ответ.
type Text string

// Chunks текст, заранее порезанный под лимит длины сообщения. Каждая часть — отдельное сообщение.
type Chunks []string

// Image бинарная картинка.
type Image struct {
	Data  []byte
	Title string
}

func (Text) isResult()   {}
func (Chunks) isResult() {}
func (Image) isResult()  {}

// Notify безопасно вызывает progress, если он задан.
func (f ProgressFunc) Notify(p Progress) {
	if f != nil {
		f(p)
	}
}
