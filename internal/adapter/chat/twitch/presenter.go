package twitch

import (
	"LLMRelay/internal/ai"
	"LLMRelay/internal/app/router"
	"LLMRelay/internal/service/format"
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"
)

// MaxMessageLength лимит длины сообщения в чате Twitch.
const MaxMessageLength = 500

// ErrUploadUnsupported — в чат Twitch нельзя выложить файл.
var ErrUploadUnsupported = errors.New("twitch: attachments are not supported")

type replier interface {
	Reply(channel, parentMsgID, text string)
}

var _ router.Presenter = (*Presenter)(nil)

// Presenter отвечает в чат Twitch ответами на исходное сообщение.
// Править сообщения в IRC нельзя, поэтому handle всегда пустой и каждый ответ уходит новым сообщением.
type Presenter struct {
	client replier
	quiet  []string
	logger *zap.SugaredLogger
}

func NewPresenter(client replier, logger *zap.SugaredLogger, quiet ...string) *Presenter {
	return &Presenter{client: client, quiet: quiet, logger: logger}
}

func (p *Presenter) Post(_ context.Context, channel, thread, text string) (string, error) {
	if slices.Contains(p.quiet, text) {
		return "", nil
	}
	for _, part := range ai.SplitText(format.Plain(text), MaxMessageLength) {
		p.client.Reply(channel, thread, part)
	}
	return "", nil
}

func (p *Presenter) Update(ctx context.Context, channel, thread, _, text string) error {
	_, err := p.Post(ctx, channel, thread, text)
	return err
}

func (p *Presenter) Upload(_ context.Context, channel, thread string, _ []byte, title string) error {
	p.logger.Warnw("Twitch upload skipped", "channel", channel, "thread", thread, "title", title)
	return ErrUploadUnsupported
}
