// Package artifact persists and loads the built corpus and its vector store as one aligned pair.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/0xcro3dile/icdrag-go/internal/adapters/vectordb"
	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
)

// Fixed artifact file names inside the data directory.
const (
	CorpusFile  = "icd10_meta.json"
	VectorsFile = "icd10_vectors.db"
)

const manifestKey = "manifest"

var (
	ErrArtifactMissing = errors.New("artifact missing: run the build command first")
	ErrMisaligned      = errors.New("corpus and vector artifacts are not aligned")
	ErrModelMismatch   = errors.New("embedding model differs from the one used at build time")
)

// Manifest describes a built artifact pair. It is stored inside the vector store.
type Manifest struct {
	Count        int       `json:"count"`
	Dimension    int       `json:"dimension"`
	EmbedModel   string    `json:"embed_model"`
	CorpusSHA256 string    `json:"corpus_sha256"`
	BuiltAt      time.Time `json:"built_at"`
}

// Paths returns the corpus and vector store paths under dir.
func Paths(dir string) (corpus, vectors string) {
	return filepath.Join(dir, CorpusFile), filepath.Join(dir, VectorsFile)
}

// Writer implements ports.ArtifactWriter.
type Writer struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// NewWriter creates a writer targeting dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, now: time.Now, logger: logger}
}

// Write stores corpus and vectors. Both files are staged as temp files and renamed
// into place only after both are complete.
func (w *Writer) Write(ctx context.Context, corpus []entities.CodeEntry, vectors [][]float32, embedModel string) error {
	if len(corpus) != len(vectors) {
		return fmt.Errorf("%w: %d entries, %d vectors", ErrMisaligned, len(corpus), len(vectors))
	}
	if len(corpus) == 0 {
		return errors.New("nothing to write")
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	corpusData, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	sum := sha256.Sum256(corpusData)

	manifest := Manifest{
		Count:        len(corpus),
		Dimension:    dim,
		EmbedModel:   embedModel,
		CorpusSHA256: hex.EncodeToString(sum[:]),
		BuiltAt:      w.now().UTC(),
	}
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	corpusPath, vectorsPath := Paths(w.dir)
	corpusTmp, vectorsTmp := corpusPath+".tmp", vectorsPath+".tmp"
	defer os.Remove(corpusTmp)
	defer os.Remove(vectorsTmp)

	if err := os.WriteFile(corpusTmp, corpusData, 0o644); err != nil {
		return fmt.Errorf("write temp corpus: %w", err)
	}

	// A stale temp database would be reused by sqlite, so start clean.
	if err := os.Remove(vectorsTmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale temp vectors: %w", err)
	}
	store, err := vectordb.OpenSQLiteVectorStore(vectorsTmp)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, vectors, map[string]string{manifestKey: string(manifestData)}); err != nil {
		store.Close()
		return fmt.Errorf("save vectors: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close vectors: %w", err)
	}

	if err := os.Rename(vectorsTmp, vectorsPath); err != nil {
		return fmt.Errorf("rename vectors: %w", err)
	}
	if err := os.Rename(corpusTmp, corpusPath); err != nil {
		return fmt.Errorf("rename corpus: %w", err)
	}

	w.logger.Info("wrote artifacts",
		"corpus", corpusPath,
		"vectors", vectorsPath,
		"entries", manifest.Count,
		"dimension", manifest.Dimension,
		"embed_model", embedModel)
	return nil
}

// Artifact is a loaded, verified corpus with its search index.
type Artifact struct {
	Corpus   []entities.CodeEntry
	Index    *vectordb.FlatIndex
	Manifest Manifest
}

// Open loads both artifacts from dir and verifies they belong together.
// An empty embedModel skips the model check.
func Open(ctx context.Context, dir, embedModel string) (*Artifact, error) {
	corpusPath, vectorsPath := Paths(dir)
	for _, p := range []string{corpusPath, vectorsPath} {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, p)
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
	}

	corpusData, err := os.ReadFile(corpusPath)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	var corpus []entities.CodeEntry
	if err := json.Unmarshal(corpusData, &corpus); err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", corpusPath, err)
	}

	store, err := vectordb.OpenSQLiteVectorStore(vectorsPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	meta, err := store.Meta(ctx)
	if err != nil {
		return nil, err
	}
	raw, ok := meta[manifestKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no manifest", ErrMisaligned, vectorsPath)
	}
	var manifest Manifest
	if err := json.Unmarshal([]byte(raw), &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	vectors, err := store.Vectors(ctx)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(corpusData)
	switch {
	case len(corpus) == 0:
		return nil, fmt.Errorf("%w: corpus is empty", ErrMisaligned)
	case len(vectors) != len(corpus):
		return nil, fmt.Errorf("%w: %d vectors for %d corpus entries", ErrMisaligned, len(vectors), len(corpus))
	case manifest.Count != len(corpus):
		return nil, fmt.Errorf("%w: manifest count %d, corpus has %d", ErrMisaligned, manifest.Count, len(corpus))
	case manifest.CorpusSHA256 != hex.EncodeToString(sum[:]):
		return nil, fmt.Errorf("%w: corpus checksum does not match manifest", ErrMisaligned)
	}
	if embedModel != "" && manifest.EmbedModel != embedModel {
		return nil, fmt.Errorf("%w: built with %q, configured %q", ErrModelMismatch, manifest.EmbedModel, embedModel)
	}

	index, err := vectordb.NewFlatIndexFrom(vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMisaligned, err)
	}
	if manifest.Dimension != 0 && index.Dimension() != manifest.Dimension {
		return nil, fmt.Errorf("%w: manifest dimension %d, vectors have %d", ErrMisaligned, manifest.Dimension, index.Dimension())
	}

	return &Artifact{Corpus: corpus, Index: index, Manifest: manifest}, nil
}
