package slack

import (
	"LLMRelay/internal/config"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	slackapi "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// EventServer принимает Events API по HTTP (режим http).
type EventServer struct {
	cfg       config.SlackConfig
	srv       *http.Server
	handler   Handler
	presenter *Presenter
	logger    *zap.SugaredLogger
	running   atomic.Bool
}

func NewEventServer(cfg config.SlackConfig, handler Handler, presenter *Presenter, logger *zap.SugaredLogger) *EventServer {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "127.0.0.1:3000"
	}
	if cfg.Path == "" {
		cfg.Path = "/slack/events"
	}
	s := &EventServer{cfg: cfg, handler: handler, presenter: presenter, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, s.handleEvent)

	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *EventServer) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		s.logger.Infow("Slack EventServer listening", "addr", s.srv.Addr, "path", s.cfg.Path)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			s.logger.Errorw("Slack EventServer stopped with error", "error", err)
		} else {
			s.logger.Infow("Slack EventServer stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.WithoutCancel(ctx))
	}()
	return nil
}

func (s *EventServer) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("slack-event-server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	return nil
}

func (s *EventServer) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed; use POST", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	sv, err := slackapi.NewSecretsVerifier(r.Header, s.cfg.SigningSecret)
	if err != nil {
		s.logger.Warnw("Slack request without signature", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "bad signature", http.StatusUnauthorized)
		return
	}
	if _, err := sv.Write(body); err != nil {
		http.Error(w, "failed to verify", http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		s.logger.Warnw("Slack signature mismatch", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "bad signature", http.StatusUnauthorized)
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		s.logger.Warnw("Slack event parse error", "error", err)
		http.Error(w, "bad event", http.StatusBadRequest)
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		var ch slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &ch); err != nil {
			http.Error(w, "bad challenge", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(ch.Challenge))
		return
	case slackevents.CallbackEvent:
		// Slack повторяет доставку, если не получил ответ за 3 секунды; повтор уже в работе
		if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
			s.logger.Infow("Slack retry skipped", "retry", retry, "reason", r.Header.Get("X-Slack-Retry-Reason"))
			w.WriteHeader(http.StatusOK)
			return
		}
		if e, ok := toEvent(ev.InnerEvent); ok {
			go s.handler.HandleEvent(context.WithoutCancel(r.Context()), s.presenter, e)
		}
	}
	w.WriteHeader(http.StatusOK)
}
