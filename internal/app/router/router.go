package router

import (
	"LLMRelay/internal/ai"
	"LLMRelay/internal/config"
	"LLMRelay/internal/service/conversation"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errGenerateTimeout = errors.New("generate timeout")

// Backends — то, что роутеру нужно от реестра бэкендов.
type Backends interface {
	Names() []string
	Lookup(name string) (ai.Backend, error)
}

// Router выбирает бэкенд для сообщения, ведёт историю треда и публикует ответ через Presenter.
type Router struct {
	cfg      *config.Config
	backends Backends
	store    *conversation.Store
	auth     Authorizer
	logger   *zap.SugaredLogger
}

func New(cfg *config.Config, backends Backends, store *conversation.Store, auth Authorizer, logger *zap.SugaredLogger) *Router {
	return &Router{
		cfg:      cfg,
		backends: backends,
		store:    store,
		auth:     auth,
		logger:   logger,
	}
}

// HandleEvent точка входа транспорта: проверка доступа, затем обработка сообщения.
func (r *Router) HandleEvent(ctx context.Context, p Presenter, ev Event) {
	log := r.logger.With("request", uuid.NewString(), "channel", ev.Channel, "thread", ev.Thread, "user", ev.User)

	if r.auth != nil && !r.auth.IsAuthorized(ev.User) {
		log.Warnw("Пользователь не в списке разрешённых")
		if _, err := p.Post(ctx, ev.Channel, ev.Thread, r.cfg.Texts.PermissionDenied); err != nil {
			log.Errorw("Не удалось отправить отказ в доступе", "error", err)
		}
		return
	}
	r.handle(ctx, log, p, ev.Channel, ev.Thread, ev.Text)
}

// HandleMessage обрабатывает одно сообщение треда без проверки доступа.
func (r *Router) HandleMessage(ctx context.Context, p Presenter, channel, thread, text string) {
	r.handle(ctx, r.logger.With("channel", channel, "thread", thread), p, channel, thread, text)
}

func (r *Router) handle(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		log.Debugw("Пустое сообщение, пропускаем")
		return
	}
	log.Infow("Msg received", "text", text)

	// Весь read-modify-write треда под одной блокировкой
	unlock := r.store.Lock(thread)
	defer unlock()

	if cmd, ok := parseCommand(text); ok {
		r.handleCommand(ctx, log, p, channel, thread, cmd)
		return
	}

	st := r.store.GetOrCreate(thread)
	selected := SelectBackend(text, r.backends.Names(), st.Backend)
	user := ai.Message{Role: r.cfg.UserRoleTag, Content: text}

	switch {
	case !st.Exists():
		st.Messages = []ai.Message{user}
	case st.Backend == "" || st.Backend == selected:
		st.Messages = append(st.Messages, user)
	default:
		// Смена бэкенда: оставляем только первое сообщение треда и новое
		log.Infow("Смена бэкенда, история сброшена", "from", st.Backend, "to", selected, "dropped", len(st.Messages)-1)
		st.Messages = []ai.Message{st.Messages[0], user}
	}
	st.Backend = selected
	r.store.Put(thread, st)

	handle := r.postInterim(ctx, log, p, channel, thread)

	backend, err := r.backends.Lookup(selected)
	if err != nil {
		log.Errorw("Бэкенд не найден", "backend", selected, "error", err)
		r.deliverFallback(ctx, log, p, channel, thread, handle)
		return
	}
	prompt, err := backend.Translate(st.Messages, r.cfg.AssistantRoleTag, r.cfg.UserRoleTag)
	if err != nil {
		log.Errorw("Не удалось собрать запрос из истории треда", "backend", selected, "error", err)
		r.deliverFallback(ctx, log, p, channel, thread, handle)
		return
	}

	gctx, cancel := r.generateContext(ctx, selected)
	defer cancel()

	imageNoted := false
	progress := func(pr ai.Progress) {
		if pr != ai.ProgressImage {
			return
		}
		imageNoted = true
		if err := r.replace(ctx, p, channel, thread, handle, r.cfg.Texts.ImagePending); err != nil {
			log.Warnw("Не удалось отправить статус генерации картинки", "error", err)
		}
	}

	start := time.Now()
	res := backend.Generate(gctx, prompt, progress)
	log.Infow("Ответ бэкенда получен", "backend", selected, "duration", time.Since(start).String(), "kind", resultKind(res))

	r.deliver(ctx, log, p, channel, thread, handle, st, res, imageNoted)
}

// deliver сохраняет ответ в историю и публикует его.
// Индикатор при картинке и длинном ответе заменяется служебным текстом, сам ответ уходит отдельно.
func (r *Router) deliver(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread, handle string, st conversation.State, res ai.Result, imageNoted bool) {
	assistant := func(content string) {
		st.Messages = append(st.Messages, ai.Message{Role: r.cfg.AssistantRoleTag, Content: content})
		r.store.Put(thread, st)
	}

	var err error
	switch v := res.(type) {
	case ai.Image:
		// Картинка в историю не попадает
		title := v.Title
		if title == "" {
			title = "Image"
		}
		if !imageNoted {
			r.note(ctx, log, p, channel, thread, handle, r.cfg.Texts.ImagePending)
		}
		err = p.Upload(ctx, channel, thread, v.Data, title)
	case ai.Chunks:
		assistant(strings.Join(v, "\n"))
		r.note(ctx, log, p, channel, thread, handle, r.cfg.Texts.Chunked)
		for i, chunk := range v {
			if _, err = p.Post(ctx, channel, thread, chunk); err != nil {
				log.Errorw("Не удалось отправить часть ответа", "chunk", i, "of", len(v))
				break
			}
		}
	case ai.Text:
		assistant(string(v))
		err = r.replace(ctx, p, channel, thread, handle, string(v))
	default:
		log.Errorw("Неизвестный тип ответа", "type", fmt.Sprintf("%T", res))
		err = r.replace(ctx, p, channel, thread, handle, ai.FallbackText)
	}

	if err != nil {
		r.postFailed(ctx, log, p, channel, thread, st, err)
	}
}

// postFailed фиксирует неудачную публикацию в истории и один раз пробует сообщить об этом.
func (r *Router) postFailed(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread string, st conversation.State, cause error) {
	log.Errorw("Error posting message", "error", cause)
	st.Messages = append(st.Messages, ai.Message{Role: r.cfg.AssistantRoleTag, Content: r.cfg.Texts.PostFailed})
	r.store.Put(thread, st)
	if _, err := p.Post(ctx, channel, thread, r.cfg.Texts.PostFailed); err != nil {
		log.Errorw("Повторная отправка не удалась", "error", err)
	}
}

func (r *Router) handleCommand(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread, cmd string) {
	log.Infow("Команда", "command", cmd)
	handle := r.postInterim(ctx, log, p, channel, thread)

	reply := r.runCommand(cmd)
	st := r.store.GetOrCreate(thread)
	st.Messages = append(st.Messages,
		ai.Message{Role: r.cfg.UserRoleTag, Content: cmd},
		ai.Message{Role: r.cfg.AssistantRoleTag, Content: reply},
	)
	r.store.Put(thread, st)

	if err := r.replace(ctx, p, channel, thread, handle, reply); err != nil {
		r.postFailed(ctx, log, p, channel, thread, st, err)
	}
}

// postInterim публикует индикатор "думаю". Пустой handle — индикатора нет, ответ уйдёт новым сообщением.
func (r *Router) postInterim(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread string) string {
	handle, err := p.Post(ctx, channel, thread, r.cfg.Texts.Thinking)
	if err != nil {
		log.Warnw("Не удалось отправить индикатор", "error", err)
		return ""
	}
	return handle
}

// replace заменяет индикатор текстом, а без индикатора публикует новое сообщение.
func (r *Router) replace(ctx context.Context, p Presenter, channel, thread, handle, text string) error {
	if handle == "" {
		_, err := p.Post(ctx, channel, thread, text)
		return err
	}
	return p.Update(ctx, channel, thread, handle, text)
}

// note редактирует индикатор служебным текстом. Без индикатора ничего не публикует.
func (r *Router) note(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread, handle, text string) {
	if handle == "" || text == "" {
		return
	}
	if err := p.Update(ctx, channel, thread, handle, text); err != nil {
		log.Warnw("Не удалось обновить индикатор", "error", err)
	}
}

func (r *Router) deliverFallback(ctx context.Context, log *zap.SugaredLogger, p Presenter, channel, thread, handle string) {
	if err := r.replace(ctx, p, channel, thread, handle, ai.FallbackText); err != nil {
		log.Errorw("Не удалось отправить ответ-заглушку", "error", err)
	}
}

func (r *Router) generateContext(ctx context.Context, backend string) (context.Context, context.CancelFunc) {
	if r.cfg.GenerateTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeoutCause(ctx, r.cfg.GenerateTimeout, fmt.Errorf("%w: %s", errGenerateTimeout, backend))
}

func resultKind(res ai.Result) string {
	switch v := res.(type) {
	case ai.Text:
		return "text"
	case ai.Chunks:
		return fmt.Sprintf("chunks(%d)", len(v))
	case ai.Image:
		return "image"
	default:
		return "unknown"
	}
}
