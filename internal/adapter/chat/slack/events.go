package slack

import (
	"LLMRelay/internal/app/router"
	"context"

	"github.com/slack-go/slack/slackevents"
)

// Handler принимает события чата; реализуется router.Router.
type Handler interface {
	HandleEvent(ctx context.Context, p router.Presenter, ev router.Event)
}

// toEvent переводит событие Events API в событие роутера.
// Обрабатываются упоминания бота и личные сообщения; сообщения ботов и служебные подтипы пропускаются.
func toEvent(inner slackevents.EventsAPIInnerEvent) (router.Event, bool) {
	switch ev := inner.Data.(type) {
	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			return router.Event{}, false
		}
		return router.Event{
			Text:    ev.Text,
			Channel: ev.Channel,
			Thread:  threadOf(ev.ThreadTimeStamp, ev.TimeStamp),
			User:    ev.User,
		}, true
	case *slackevents.MessageEvent:
		// В каналах бот реагирует только на упоминания, они приходят отдельным app_mention
		if ev.ChannelType != "im" || ev.BotID != "" || ev.SubType != "" {
			return router.Event{}, false
		}
		return router.Event{
			Text:    ev.Text,
			Channel: ev.Channel,
			Thread:  threadOf(ev.ThreadTimeStamp, ev.TimeStamp),
			User:    ev.User,
		}, true
	}
	return router.Event{}, false
}

func threadOf(threadTS, ts string) string {
	if threadTS != "" {
		return threadTS
	}
	return ts
}
