package twitch

import (
	"LLMRelay/internal/app/router"
	"LLMRelay/internal/config"
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"go.uber.org/zap"
)

// Handler принимает события чата; реализуется router.Router.
type Handler interface {
	HandleEvent(ctx context.Context, p router.Presenter, ev router.Event)
}

const spamWindow = 5 * time.Second

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

// Run запускает клиент Twitch IRC и передаёт обращения к боту в handler.
// Базовые реконнекты обеспечиваются клиентом; функция завершается по отмене ctx.
// quiet — служебные тексты (индикатор "думаю"), которые в чат Twitch не отправляются.
func Run(ctx context.Context, logger *zap.SugaredLogger, cfg config.TwitchConfig, handler Handler, quiet ...string) error {
	if handler == nil {
		return nil
	}
	username := strings.ToLower(strings.TrimSpace(cfg.Username))
	token := strings.TrimSpace(cfg.OAuth)
	channel := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.Channel), "#"))
	if username == "" || token == "" || channel == "" {
		logger.Warnw("Twitch chat not configured: missing env", "username", username != "", "token", token != "", "channel", channel != "")
		return nil
	}
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}

	client := twitchirc.NewClient(username, token)
	presenter := NewPresenter(client, logger, quiet...)
	spam := newDedupe(spamWindow)

	client.OnConnect(func() {
		logger.Infow("Twitch connected", "as", username, "join", channel)
		client.Join(channel)
	})

	client.OnPrivateMessage(func(msg twitchirc.PrivateMessage) {
		ev, ok := toEvent(msg, username)
		if !ok {
			return
		}
		// Антиспам: одинаковый текст от того же пользователя в течение окна — дропаем
		if !spam.allow(ev.User, ev.Text, time.Now()) {
			return
		}
		go handler.HandleEvent(ctx, presenter, ev)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- client.Connect() }()

	select {
	case <-ctx.Done():
		_ = client.Disconnect()
		// Подождём чуть-чуть корректного завершения
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
		}
		return context.Canceled
	case err := <-errCh:
		if err != nil {
			logger.Errorw("twitch connect error", "error", err)
		}
		return err
	}
}

// toEvent оставляет только сообщения с упоминанием бота (@username) и вырезает URL.
// Тред — исходное сообщение ветки ответов, иначе само сообщение.
func toEvent(msg twitchirc.PrivateMessage, username string) (router.Event, bool) {
	user := strings.TrimSpace(msg.User.Name)
	text := strings.TrimSpace(msg.Message)
	if text == "" || user == "" || strings.EqualFold(user, username) {
		return router.Event{}, false
	}
	if !strings.Contains(strings.ToLower(text), "@"+username) {
		return router.Event{}, false
	}

	text = strings.TrimSpace(urlRe.ReplaceAllString(text, ""))
	if text == "" {
		return router.Event{}, false
	}

	thread := msg.ID
	for _, tag := range []string{"reply-thread-parent-msg-id", "reply-parent-msg-id"} {
		if id := msg.Tags[tag]; id != "" {
			thread = id
			break
		}
	}
	return router.Event{Text: text, Channel: msg.Channel, Thread: thread, User: user}, true
}

type lastMsg struct {
	text string
	at   time.Time
}

// dedupe отсеивает повтор одного и того же текста от пользователя в пределах окна.
type dedupe struct {
	window time.Duration
	mu     sync.Mutex
	last   map[string]lastMsg
}

func newDedupe(window time.Duration) *dedupe {
	return &dedupe{window: window, last: map[string]lastMsg{}}
}

func (d *dedupe) allow(user, text string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if lm, ok := d.last[user]; ok && lm.text == text && now.Sub(lm.at) <= d.window {
		return false
	}
	d.last[user] = lastMsg{text: text, at: now}
	return true
}
