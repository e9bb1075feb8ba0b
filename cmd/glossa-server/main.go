package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/at-ishikawa/glossa/internal/command"
	"github.com/at-ishikawa/glossa/internal/compose"
	"github.com/at-ishikawa/glossa/internal/config"
	"github.com/at-ishikawa/glossa/internal/database"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/gloss"
	"github.com/at-ishikawa/glossa/internal/inference/openai"
	"github.com/at-ishikawa/glossa/internal/media"
	"github.com/at-ishikawa/glossa/internal/metrics"
	"github.com/at-ishikawa/glossa/internal/server"
	"github.com/at-ishikawa/glossa/internal/sign"
	"github.com/at-ishikawa/glossa/internal/synthesis"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     logLevel(),
		AddSource: true,
	})))

	loader, err := config.NewConfigLoader(os.Getenv("GLOSSA_CONFIG"))
	if err != nil {
		return fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loader.Load() > %w", err)
	}
	if err := loader.ValidateServing(cfg); err != nil {
		return fmt.Errorf("loader.ValidateServing() > %w", err)
	}
	if cfg.Oracle.APIKey == "" {
		return fmt.Errorf("ORACLE_API_KEY environment variable is required")
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeRepo()
	}()

	oracleClient := openai.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.MaxRetryAttempts, cfg.Oracle.Timeout())
	defer func() {
		_ = oracleClient.Close()
	}()

	m := metrics.New()
	pipeline := sign.NewPipeline(repo, media.NewClipStore(cfg.Media.ClipDirectory), oracleClient,
		sign.WithOracleTimeout(cfg.Oracle.Timeout()),
		sign.WithRecorder(m),
	)
	compositor := compose.NewCompositor(command.NewExecRunner(), compose.Options{
		OutputPath: cfg.Media.OutputPath,
		Width:      cfg.Media.Width,
		Height:     cfg.Media.Height,
		FPS:        cfg.Media.FPS,
		FFmpegPath: cfg.Media.FFmpegPath,
	})
	handler := server.NewHandler(
		gloss.NewConverter(oracleClient, cfg.Gloss.MaxWords),
		synthesis.NewService(pipeline, compositor, m),
		repo,
		compositor.OutputPath(),
		server.WithMetrics(m.Handler(), m),
		server.WithAllowedOrigins(cfg.Server.CORS.AllowedOrigins),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler.Routes(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Default().Info("starting server", "addr", httpServer.Addr, "model", oracleClient.GetModel())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer.ListenAndServe() > %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Default().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpServer.Shutdown() > %w", err)
	}
	return nil
}

func logLevel() slog.Level {
	if os.Getenv("GLOSSA_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func openRepository(cfg *config.Config) (dictionary.Repository, func() error, error) {
	if cfg.Dictionary.File != "" {
		repo, err := dictionary.OpenYAMLFile(cfg.Dictionary.File)
		if err != nil {
			return nil, nil, fmt.Errorf("dictionary.OpenYAMLFile() > %w", err)
		}
		return repo, func() error { return nil }, nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	return dictionary.NewDBRepository(db), db.Close, nil
}
