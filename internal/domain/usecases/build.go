// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

// DefaultBatchSize is the number of texts sent to the embedder per call.
const DefaultBatchSize = 64

// BuildUseCase turns a source table into the persisted corpus and vector artifacts.
type BuildUseCase struct {
	reader    ports.SourceReader
	embedder  ports.EmbeddingService
	writer    ports.ArtifactWriter
	batchSize int
	logger    *slog.Logger
}

// BuildOption configures a BuildUseCase.
type BuildOption func(*BuildUseCase)

// WithBuildLogger sets the logger.
func WithBuildLogger(logger *slog.Logger) BuildOption {
	return func(uc *BuildUseCase) {
		uc.logger = logger
	}
}

// NewBuildUseCase creates a BuildUseCase with injected dependencies.
func NewBuildUseCase(
	reader ports.SourceReader,
	embedder ports.EmbeddingService,
	writer ports.ArtifactWriter,
	batchSize int,
	opts ...BuildOption,
) *BuildUseCase {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	uc := &BuildUseCase{
		reader:    reader,
		embedder:  embedder,
		writer:    writer,
		batchSize: batchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.logger == nil {
		uc.logger = slog.Default()
	}
	return uc
}

// BuildReport summarizes a completed build.
type BuildReport struct {
	Source     string
	Lines      int
	Short      int
	Empty      int
	Duplicates int
	Entries    int
	Dimension  int
}

// Build reads, deduplicates, embeds and persists the corpus.
// Nothing is written unless every step succeeds.
func (uc *BuildUseCase) Build(ctx context.Context, sourcePath string) (*BuildReport, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, abs)
		}
		return nil, fmt.Errorf("stat source %s: %w", abs, err)
	}

	parsed, stats, err := uc.reader.Read(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	corpus, dropped := Dedupe(parsed)
	report := &BuildReport{
		Source:     abs,
		Lines:      stats.Lines,
		Short:      stats.Short,
		Empty:      stats.Empty,
		Duplicates: dropped,
		Entries:    len(corpus),
	}
	uc.logger.Info("parsed source table",
		"path", abs,
		"lines", stats.Lines,
		"short_rows", stats.Short,
		"empty_rows", stats.Empty,
		"duplicates", dropped,
		"entries", len(corpus))

	if len(corpus) == 0 {
		return nil, fmt.Errorf("%w from %s: check the path and field mapping", ErrNoEntries, abs)
	}

	vectors, err := uc.embedAll(ctx, corpus)
	if err != nil {
		return nil, err
	}
	report.Dimension = len(vectors[0])

	if err := uc.writer.Write(ctx, corpus, vectors, uc.embedder.Model()); err != nil {
		return nil, fmt.Errorf("writing artifacts: %w", err)
	}
	return report, nil
}

// Dedupe keeps the first entry for each (code, title) pair, preserving order.
func Dedupe(entries []entities.CodeEntry) ([]entities.CodeEntry, int) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]entities.CodeEntry, 0, len(entries))
	for _, e := range entries {
		k := e.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out, len(entries) - len(out)
}

// embedAll embeds every entry in batches and unit-normalizes the vectors.
// vectors[i] always belongs to corpus[i].
func (uc *BuildUseCase) embedAll(ctx context.Context, corpus []entities.CodeEntry) ([][]float32, error) {
	vectors := make([][]float32, 0, len(corpus))
	dim := 0
	for start := 0; start < len(corpus); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(corpus) {
			end = len(corpus)
		}

		texts := make([]string, end-start)
		for i, e := range corpus[start:end] {
			texts[i] = embeddingInput(e.Text)
		}

		batch, err := uc.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding entries %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), len(texts))
		}

		for i, v := range batch {
			if dim == 0 {
				dim = len(v)
			}
			if len(v) != dim || dim == 0 {
				return nil, fmt.Errorf("entry %d: embedding dimension %d, expected %d", start+i, len(v), dim)
			}
			unit, err := normalizeVector(v)
			if err != nil {
				return nil, fmt.Errorf("entry %d (%s): %w", start+i, corpus[start+i].Code, err)
			}
			vectors = append(vectors, unit)
		}

		uc.logger.Debug("embedded batch", "done", end, "total", len(corpus))
	}
	return vectors, nil
}
