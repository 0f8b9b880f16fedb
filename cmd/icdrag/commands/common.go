package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/0xcro3dile/icdrag-go/internal/adapters/artifact"
	"github.com/0xcro3dile/icdrag-go/internal/adapters/embedding"
	"github.com/0xcro3dile/icdrag-go/internal/adapters/llm"
	"github.com/0xcro3dile/icdrag-go/internal/config"
	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
	"github.com/0xcro3dile/icdrag-go/internal/domain/usecases"
	"github.com/0xcro3dile/icdrag-go/internal/platform/logger"
)

// loadConfig reads configuration, applies global flag overrides and builds the logger.
// Logs go to logOut so commands that own stdout can keep it clean.
func loadConfig(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: logOut,
	})
	return cfg, log, nil
}

// newEmbedder returns the configured embedding backend.
func newEmbedder(cfg *config.Config) (ports.EmbeddingService, error) {
	switch cfg.Embed.Provider {
	case config.ProviderOpenAI:
		return embedding.NewOpenAIAdapter(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.Embed.Model)
	default:
		return embedding.NewOllamaAdapter(cfg.OllamaURL, cfg.Embed.Model), nil
	}
}

// newLLM returns the configured generation backend.
func newLLM(cfg *config.Config) (ports.LLMService, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		return llm.NewOpenAIChatAdapter(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.LLM.Model, cfg.LLM.Format == "json")
	default:
		return llm.NewOllamaLLMAdapter(cfg.OllamaURL, cfg.LLM.Model,
			llm.WithTimeout(cfg.LLM.Timeout),
			llm.WithFormat(cfg.LLM.Format),
		), nil
	}
}

// openSuggester loads the artifacts and wires the suggest use case.
// It fails when the artifacts are missing or were built with another embedding model.
func openSuggester(ctx context.Context, cfg *config.Config, log *slog.Logger) (*usecases.SuggestUseCase, ports.EmbeddingService, ports.LLMService, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := newLLM(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	art, err := artifact.Open(ctx, cfg.DataDir, embedder.Model())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening artifacts in %s: %w", cfg.DataDir, err)
	}
	log.Info("loaded artifacts",
		"dir", cfg.DataDir,
		"entries", len(art.Corpus),
		"dimension", art.Manifest.Dimension,
		"built_at", art.Manifest.BuiltAt)

	uc, err := usecases.NewSuggestUseCase(embedder, art.Index, art.Corpus, gen,
		usecases.WithSuggestLogger(log),
		usecases.WithStrictAnswers(cfg.StrictAnswers),
		usecases.WithDefaultTopK(cfg.DefaultTopK),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	return uc, embedder, gen, nil
}
