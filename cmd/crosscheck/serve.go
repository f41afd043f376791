package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crosscheck-ai/crosscheck/internal/backend"
	"github.com/crosscheck-ai/crosscheck/internal/cache"
	"github.com/crosscheck-ai/crosscheck/internal/config"
	"github.com/crosscheck-ai/crosscheck/internal/mcptools"
	"github.com/crosscheck-ai/crosscheck/internal/orchestrator"
	"github.com/crosscheck-ai/crosscheck/internal/persist"
	"github.com/crosscheck-ai/crosscheck/internal/review"
	"github.com/crosscheck-ai/crosscheck/internal/secrets"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

// serve wires the orchestrator from config and runs the MCP server until
// the process is interrupted.
func serve(cfg *config.Config, flags cliFlags) error {
	level := slog.LevelInfo
	if flags.Verbose || cfg.Verbose {
		level = slog.LevelDebug
	}
	// Stdout carries the MCP protocol in stdio mode; all logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	registry := backend.NewRegistry()
	queues := make(map[string]*backend.Queue)

	if cfg.OpenAIEnabled() {
		b := backend.NewOpenAI(backend.OpenAIConfig{
			APIKey:  cfg.OpenAIKey(),
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		}, logger)
		if err := registry.Register(b); err != nil {
			return err
		}
		queues[backend.OpenAIBackendID] = backend.NewQueue(cfg.OpenAI.Queue)
	}

	if cfg.GeminiEnabled() {
		b := backend.NewGemini(backend.GeminiConfig{
			APIKey:  cfg.GeminiKey(),
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		}, logger)
		if err := registry.Register(b); err != nil {
			return err
		}
		queues[backend.GeminiBackendID] = backend.NewQueue(cfg.Gemini.Queue)
	}

	if len(registry.IDs()) == 0 {
		return fmt.Errorf("no backends configured: set OPENAI_API_KEY or GEMINI_API_KEY, or add keys to crosscheck.yml")
	}

	resultCache := cache.New(cache.Options{
		Capacity:   cfg.Cache.Capacity,
		DefaultTTL: cfg.CacheTTL(),
		Logger:     logger,
	})

	tracker := status.NewTracker(status.Options{
		TTL:           cfg.StatusTTL(),
		SweepInterval: cfg.SweepInterval(),
		Logger:        logger,
	})
	defer tracker.Close()

	scanner := secrets.New(cfg.Scanner.Config, logger)

	var store *persist.Store
	if cfg.DBPath != "" {
		s, err := persist.Open(cfg.DBPath, logger)
		if err != nil {
			logger.Warn("persistence disabled", "path", cfg.DBPath, "error", err)
		} else {
			store = s
			defer store.Close()
			orchestrator.WarmStart(store, resultCache, tracker, logger)
		}
	}

	var limits review.Limits
	if cfg.TimeoutMS > 0 {
		limits.DefaultTimeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Registry:   registry,
		Queues:     queues,
		Cache:      resultCache,
		Tracker:    tracker,
		Scanner:    scanner,
		Store:      store,
		Limits:     limits,
		CacheTTL:   cfg.CacheTTL(),
		SecretScan: !cfg.Scanner.Disabled,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	server := mcptools.NewServer(mcptools.NewService(orch))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.HTTPAddr != "" {
		logger.Info("serving MCP over HTTP", "addr", flags.HTTPAddr, "backends", registry.IDs())
		return mcptools.RunHTTP(ctx, server, flags.HTTPAddr)
	}

	logger.Info("serving MCP on stdio", "backends", registry.IDs())
	return mcptools.RunStdio(ctx, server)
}
