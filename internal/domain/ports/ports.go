// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
)

// EmbeddingService maps text to fixed-length vectors.
// The same service (same model) must be used at build time and at query time.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model identifier.
	Model() string
}

// LLMService is the external text-generation service.
type LLMService interface {
	// Generate sends a single non-streaming request and returns the generated text.
	Generate(ctx context.Context, prompt string) (string, error)

	// Model returns the generation model identifier.
	Model() string
}

// SourceReader parses a source table into code entries in file order.
type SourceReader interface {
	Read(ctx context.Context, path string) ([]entities.CodeEntry, ReadStats, error)
}

// ReadStats counts what the reader skipped.
type ReadStats struct {
	Lines int // non-empty lines seen
	Short int // lines with too few fields
	Empty int // rows with an empty code or title
}

// Hit is a search result addressed by corpus position.
type Hit struct {
	Position int
	Score    float64
}

// VectorIndex is an exact k-nearest-neighbor oracle over unit vectors.
type VectorIndex interface {
	// Search returns at most k hits ordered by descending inner product.
	Search(query []float32, k int) ([]Hit, error)

	// Len returns the number of stored vectors.
	Len() int

	// Dimension returns the vector dimension.
	Dimension() int
}

// ArtifactWriter persists a built corpus and its position-aligned vectors.
type ArtifactWriter interface {
	Write(ctx context.Context, corpus []entities.CodeEntry, vectors [][]float32, embedModel string) error
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
