package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

// DefaultTopK is used when a request does not set topK.
const DefaultTopK = 10

// SuggestUseCase retrieves candidate codes for a note and asks the model to pick one.
// All fields are read-only after construction, so one instance serves concurrent requests.
type SuggestUseCase struct {
	embedder ports.EmbeddingService
	index    ports.VectorIndex
	corpus   []entities.CodeEntry
	llm      ports.LLMService
	strict   bool
	topK     int
	logger   *slog.Logger
}

// SuggestOption configures a SuggestUseCase.
type SuggestOption func(*SuggestUseCase)

// WithSuggestLogger sets the logger.
func WithSuggestLogger(logger *slog.Logger) SuggestOption {
	return func(uc *SuggestUseCase) {
		uc.logger = logger
	}
}

// WithStrictAnswers makes Suggest reject model output that fails ParseModelAnswer.
func WithStrictAnswers(strict bool) SuggestOption {
	return func(uc *SuggestUseCase) {
		uc.strict = strict
	}
}

// WithDefaultTopK sets the topK used when a request leaves it at zero.
func WithDefaultTopK(k int) SuggestOption {
	return func(uc *SuggestUseCase) {
		if k > 0 {
			uc.topK = k
		}
	}
}

// NewSuggestUseCase creates a SuggestUseCase. The index must hold exactly one vector per corpus entry.
func NewSuggestUseCase(
	embedder ports.EmbeddingService,
	index ports.VectorIndex,
	corpus []entities.CodeEntry,
	llm ports.LLMService,
	opts ...SuggestOption,
) (*SuggestUseCase, error) {
	if len(corpus) == 0 {
		return nil, ErrNoEntries
	}
	if index.Len() != len(corpus) {
		return nil, fmt.Errorf("vector index holds %d vectors for %d corpus entries", index.Len(), len(corpus))
	}
	uc := &SuggestUseCase{
		embedder: embedder,
		index:    index,
		corpus:   corpus,
		llm:      llm,
		strict:   true,
		topK:     DefaultTopK,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.logger == nil {
		uc.logger = slog.Default()
	}
	return uc, nil
}

// CorpusSize returns the number of retrievable entries.
func (uc *SuggestUseCase) CorpusSize() int {
	return len(uc.corpus)
}

// Retrieve returns the topK most similar entries, best first.
// topK above the corpus size is clamped.
func (uc *SuggestUseCase) Retrieve(ctx context.Context, note string, topK int) ([]entities.Candidate, error) {
	if strings.TrimSpace(note) == "" {
		return nil, ErrEmptyNote
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}
	if topK > len(uc.corpus) {
		topK = len(uc.corpus)
	}

	raw, err := uc.embedder.Embed(ctx, embeddingInput(note))
	if err != nil {
		return nil, fmt.Errorf("embedding note: %w", err)
	}
	query, err := normalizeVector(raw)
	if err != nil {
		return nil, fmt.Errorf("embedding note: %w", err)
	}

	hits, err := uc.index.Search(query, topK)
	if err != nil {
		return nil, fmt.Errorf("searching vectors: %w", err)
	}

	candidates := make([]entities.Candidate, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(uc.corpus) {
			return nil, fmt.Errorf("search returned position %d outside corpus of %d", h.Position, len(uc.corpus))
		}
		e := uc.corpus[h.Position]
		candidates = append(candidates, entities.Candidate{
			Code:  e.Code,
			Title: e.Title,
			Score: clampScore(h.Score),
		})
	}
	return candidates, nil
}

// PromptModel asks the generation service to choose among candidates and returns its raw text.
func (uc *SuggestUseCase) PromptModel(ctx context.Context, note string, candidates []entities.Candidate) (string, error) {
	answer, err := uc.llm.Generate(ctx, BuildPrompt(note, candidates))
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Suggest runs Retrieve then PromptModel. Either the full result is returned or an error.
func (uc *SuggestUseCase) Suggest(ctx context.Context, req entities.SuggestRequest) (*entities.SuggestionResult, error) {
	topK := req.TopK
	if topK == 0 {
		topK = uc.topK
	}

	candidates, err := uc.Retrieve(ctx, req.Note, topK)
	if err != nil {
		return nil, err
	}

	raw, err := uc.PromptModel(ctx, req.Note, candidates)
	if err != nil {
		return nil, err
	}

	result := &entities.SuggestionResult{
		Candidates:  candidates,
		ModelAnswer: raw,
		Disclaimer:  entities.Disclaimer,
	}

	answer, err := ParseModelAnswer(raw, candidates)
	switch {
	case err == nil:
		result.Answer = answer
	case uc.strict:
		return nil, err
	default:
		uc.logger.Warn("model answer failed validation", "error", err)
	}

	uc.logger.Info("suggested codes",
		"top_k", topK,
		"candidates", len(candidates),
		"validated", result.Answer != nil)
	return result, nil
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(-1, math.Min(1, s))
}
