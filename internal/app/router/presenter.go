package router

import "context"

// Event входящее сообщение из чата.
// Thread — идентификатор треда; если сообщение не в треде, транспорт подставляет id самого сообщения.
type Event struct {
	Text    string
	Channel string
	Thread  string
	User    string
}

// Presenter публикует ответы в чат. Реализуется транспортом (Slack, Twitch).
type Presenter interface {
	// Post публикует новое сообщение в тред и возвращает его handle для последующей правки.
	Post(ctx context.Context, channel, thread, text string) (string, error)
	// Update правит ранее опубликованное сообщение.
	Update(ctx context.Context, channel, thread, handle, text string) error
	// Upload выкладывает бинарное вложение (картинку) в тред.
	Upload(ctx context.Context, channel, thread string, data []byte, title string) error
}

// Authorizer решает, можно ли пользователю писать боту.
type Authorizer interface {
	IsAuthorized(userID string) bool
}
