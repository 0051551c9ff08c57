package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/savelyeva/docextract/internal/api"
	"github.com/savelyeva/docextract/internal/config"
	"github.com/savelyeva/docextract/internal/llm"
	"github.com/savelyeva/docextract/internal/store"
	"github.com/savelyeva/docextract/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	st, err := store.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("connected to redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)

	client := llm.NewClient(llm.Config{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	}, logger)
	if !client.Ready() {
		// Tasks will fail with a transport descriptor instead of the
		// process crashing.
		logger.Warn("OPENAI_API_KEY not set, extraction tasks will fail")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := worker.New(st, llm.NewExtractor(client, logger), cfg.PollInterval, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	handler := api.NewHandler(st, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	wg.Wait()
	logger.Info("server stopped")
}
