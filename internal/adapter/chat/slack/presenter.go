package slack

import (
	"LLMRelay/internal/app/router"
	"LLMRelay/internal/service/format"
	"bytes"
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"go.uber.org/zap"
)

// poster — методы *slackapi.Client, которыми пользуется Presenter.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slackapi.MsgOption) (string, string, string, error)
	UploadFileV2Context(ctx context.Context, params slackapi.UploadFileV2Parameters) (*slackapi.FileSummary, error)
}

var _ router.Presenter = (*Presenter)(nil)

// Presenter публикует ответы в треды Slack. Markdown моделей переводится в mrkdwn.
type Presenter struct {
	api    poster
	logger *zap.SugaredLogger
}

func NewPresenter(api poster, logger *zap.SugaredLogger) *Presenter {
	return &Presenter{api: api, logger: logger}
}

// Post возвращает ts нового сообщения — он и есть handle.
func (p *Presenter) Post(ctx context.Context, channel, thread, text string) (string, error) {
	_, ts, err := p.api.PostMessageContext(ctx, channel,
		slackapi.MsgOptionText(format.Slack(text), false),
		slackapi.MsgOptionTS(thread),
	)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	p.logger.Debugw("Slack message posted", "channel", channel, "thread", thread, "ts", ts)
	return ts, nil
}

func (p *Presenter) Update(ctx context.Context, channel, _, handle, text string) error {
	if _, _, _, err := p.api.UpdateMessageContext(ctx, channel, handle, slackapi.MsgOptionText(format.Slack(text), false)); err != nil {
		return fmt.Errorf("slack update: %w", err)
	}
	return nil
}

func (p *Presenter) Upload(ctx context.Context, channel, thread string, data []byte, title string) error {
	_, err := p.api.UploadFileV2Context(ctx, slackapi.UploadFileV2Parameters{
		Channel:         channel,
		ThreadTimestamp: thread,
		Reader:          bytes.NewReader(data),
		FileSize:        len(data),
		Filename:        "image.png",
		Title:           title,
	})
	if err != nil {
		return fmt.Errorf("slack upload: %w", err)
	}
	return nil
}
