package main

import (
	"fmt"
	"log/slog"

	"github.com/at-ishikawa/glossa/internal/config"
	"github.com/at-ishikawa/glossa/internal/database"
	"github.com/at-ishikawa/glossa/internal/dictionary"
	"github.com/at-ishikawa/glossa/internal/inference/openai"
	"github.com/at-ishikawa/glossa/internal/media"
	"github.com/at-ishikawa/glossa/internal/sign"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

// openRepository opens the YAML dictionary file when one is configured and the database otherwise.
// The returned close function releases the database connection.
func openRepository(cfg *config.Config) (dictionary.Repository, func() error, error) {
	if cfg.Dictionary.File != "" {
		repo, err := dictionary.OpenYAMLFile(cfg.Dictionary.File)
		if err != nil {
			return nil, nil, fmt.Errorf("dictionary.OpenYAMLFile() > %w", err)
		}
		slog.Default().Debug("using dictionary file", "path", cfg.Dictionary.File)
		return repo, func() error { return nil }, nil
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("database.Open() > %w", err)
	}
	return dictionary.NewDBRepository(db), db.Close, nil
}

func newOracleClient(cfg *config.Config) *openai.Client {
	if cfg.Oracle.APIKey == "" {
		slog.Default().Warn("ORACLE_API_KEY is not set; oracle calls will likely be rejected and fall back to defaults")
	}
	return openai.NewClient(
		cfg.Oracle.BaseURL,
		cfg.Oracle.APIKey,
		cfg.Oracle.Model,
		cfg.Oracle.MaxRetryAttempts,
		cfg.Oracle.Timeout(),
	)
}

func newPipeline(cfg *config.Config, repo dictionary.Repository, client *openai.Client, opts ...sign.Option) *sign.Pipeline {
	opts = append([]sign.Option{sign.WithOracleTimeout(cfg.Oracle.Timeout())}, opts...)
	return sign.NewPipeline(repo, media.NewClipStore(cfg.Media.ClipDirectory), client, opts...)
}
