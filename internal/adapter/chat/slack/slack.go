// Package slack — транспорт Slack: socket mode или Events API по HTTP.
package slack

import (
	"LLMRelay/internal/config"
	"context"
	"errors"
	"fmt"
	"strings"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// Run подключается к Slack и передаёт события в handler до отмены ctx.
func Run(ctx context.Context, logger *zap.SugaredLogger, cfg config.SlackConfig, handler Handler) error {
	if !cfg.Enabled() {
		logger.Warnw("Slack not configured: missing SLACK_BOT_TOKEN")
		return nil
	}

	switch strings.ToLower(cfg.Mode) {
	case "http":
		if cfg.SigningSecret == "" {
			return errors.New("slack: SLACK_SIGNING_SECRET is required in http mode")
		}
		api := slackapi.New(cfg.BotToken)
		srv := NewEventServer(cfg, handler, NewPresenter(api, logger), logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return srv.Stop(context.WithoutCancel(ctx))
	default:
		if cfg.AppToken == "" {
			return errors.New("slack: SLACK_APP_TOKEN is required in socket mode")
		}
		api := slackapi.New(cfg.BotToken, slackapi.OptionAppLevelToken(cfg.AppToken))
		return runSocket(ctx, logger, api, handler)
	}
}

func runSocket(ctx context.Context, logger *zap.SugaredLogger, api *slackapi.Client, handler Handler) error {
	sm := socketmode.New(api)
	presenter := NewPresenter(api, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- sm.RunContext(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorw("slack socket mode error", "error", err)
				return fmt.Errorf("slack socket mode: %w", err)
			}
			return err
		case evt, ok := <-sm.Events:
			if !ok {
				return nil
			}
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				logger.Infow("Slack connecting...")
			case socketmode.EventTypeConnected:
				logger.Infow("Slack connected")
			case socketmode.EventTypeConnectionError:
				logger.Warnw("Slack connection error", "data", evt.Data)
			case socketmode.EventTypeEventsAPI:
				apiEvt, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if evt.Request != nil {
					sm.Ack(*evt.Request)
				}
				if apiEvt.Type != slackevents.CallbackEvent {
					continue
				}
				if e, ok := toEvent(apiEvt.InnerEvent); ok {
					go handler.HandleEvent(ctx, presenter, e)
				}
			}
		}
	}
}
