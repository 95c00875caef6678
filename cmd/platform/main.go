// Package main boots the LiveRoom companion API and wires application dependencies.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easeaico/liveroom/internal/chat"
	"github.com/easeaico/liveroom/internal/config"
	"github.com/easeaico/liveroom/internal/handler"
	"github.com/easeaico/liveroom/internal/models"
	"github.com/easeaico/liveroom/internal/mood"
	"github.com/easeaico/liveroom/internal/persona"
	"github.com/easeaico/liveroom/internal/storage"
	"github.com/easeaico/liveroom/internal/usage"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	slog.Info("configuration loaded",
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"image_model", cfg.ImageModel,
		"usage_backend", cfg.UsageBackend,
		"mood_timezone", cfg.MoodLocation.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	var counters usage.Counters = store.Accounts
	if cfg.UsageBackend == config.UsageBackendRedis {
		client, err := storage.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer client.Close()
		counters = storage.NewRedisCounters(client)
	}
	gate := usage.NewGate(store.Accounts, counters)

	var completer chat.Completer
	if cfg.LLMAPIKey != "" {
		llm, err := models.NewLLM(ctx, cfg.LLMProvider, cfg.LLMModel, cfg.LLMAPIKey)
		if err != nil {
			log.Fatalf("failed to create chat model: %v", err)
		}
		completer = models.NewCompleter(llm, models.DefaultCompletionParams)
	} else {
		slog.Warn("LLM_API_KEY not set, every reply uses the persona fallback")
	}

	var images chat.ImageGenerator
	if cfg.GoogleAPIKey != "" {
		generator, err := models.NewPortraitRenderer(ctx, cfg.GoogleAPIKey, cfg.ImageModel, cfg.AspectRatio)
		if err != nil {
			log.Fatalf("failed to create image generator: %v", err)
		}
		images = generator
	} else {
		slog.Warn("GOOGLE_API_KEY not set, image requests fall back to text")
	}

	personas := persona.Default()
	selector := mood.NewSelector(mood.DefaultCatalog(), cfg.MoodLocation)

	chatService := chat.NewService(chat.Options{
		Conversations:     store.Conversations,
		Characters:        store.Characters,
		Gate:              gate,
		Completer:         completer,
		Personas:          personas,
		Selector:          selector,
		HistoryLimit:      cfg.HistoryLimit,
		CompletionTimeout: cfg.CompletionTimeout,
	})
	imageService := chat.NewImageService(store.Characters, gate, images, personas)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := handler.NewRouter(handler.Deps{
		Personas:   personas,
		Moods:      selector.Catalog(),
		Characters: store.Characters,
		Chat:       chatService,
		Images:     imageService,
		Usage:      gate,
		Health:     store,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down http server", "error", err.Error())
	}
	slog.Info("shutdown complete")
}
