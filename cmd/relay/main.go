package main

import (
	"LLMRelay/internal/adapter/chat/slack"
	"LLMRelay/internal/adapter/chat/twitch"
	"LLMRelay/internal/ai"
	"LLMRelay/internal/ai/backends"
	"LLMRelay/internal/app/router"
	"LLMRelay/internal/config"
	"LLMRelay/internal/service/access"
	"LLMRelay/internal/service/conversation"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap: в режиме дебага — человекочитаемый
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.DebugMode {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	if err := run(cfg, sugar); err != nil {
		sugar.Errorw("relay stopped with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infow("Starting relay",
		"DebugMode", cfg.DebugMode,
		"bot", cfg.BotName,
		"version", cfg.Version,
		"backends", cfg.Backends,
	)

	specs, err := backends.Specs(cfg, logger)
	if err != nil {
		return err
	}
	registry := ai.NewRegistry()
	if err := registry.RegisterAll(ctx, specs); err != nil {
		return err
	}
	logger.Infow("Backends registered", "names", registry.Names(), "default", registry.Default())

	allow := access.New(cfg.AllowedUsers...)
	if allow.Len() == 0 {
		logger.Warnw("Allowlist is empty: every user will get a permission denied reply")
	}

	r := router.New(cfg, registry, conversation.NewStore(), allow, logger)

	if !cfg.Slack.Enabled() && !cfg.Twitch.Enabled() {
		return errors.New("no chat transport configured: set SLACK_BOT_TOKEN or TWITCH_* variables")
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Slack.Enabled() {
		g.Go(func() error {
			return ignoreCanceled(slack.Run(gctx, logger.With("transport", "slack"), cfg.Slack, r))
		})
	}
	if cfg.Twitch.Enabled() {
		g.Go(func() error {
			return ignoreCanceled(twitch.Run(gctx, logger.With("transport", "twitch"), cfg.Twitch, r, cfg.Texts.Thinking))
		})
	}

	err = g.Wait()
	logger.Infow("Relay stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
