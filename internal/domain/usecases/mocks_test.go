package usecases

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
	"github.com/0xcro3dile/icdrag-go/internal/domain/ports"
)

// vocabEmbedder counts vocabulary words, plus a small bias so no vector is zero.
type vocabEmbedder struct {
	vocab   []string
	calls   int
	batches [][]string
	err     error
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vocab: []string{"cholera", "vibrio", "typhoid", "asthma", "fracture", "femur"}}
}

func (m *vocabEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(m.vocab)+1)
	for i, w := range m.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	v[len(m.vocab)] = 0.1
	return v
}

func (m *vocabEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *vocabEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *vocabEmbedder) Model() string { return "vocab-test" }

// mockReader returns fixed entries.
type mockReader struct {
	entries []entities.CodeEntry
	stats   ports.ReadStats
	err     error
}

func (m *mockReader) Read(ctx context.Context, path string) ([]entities.CodeEntry, ports.ReadStats, error) {
	return m.entries, m.stats, m.err
}

// mockWriter captures what would be persisted.
type mockWriter struct {
	corpus  []entities.CodeEntry
	vectors [][]float32
	model   string
	writes  int
}

func (m *mockWriter) Write(ctx context.Context, corpus []entities.CodeEntry, vectors [][]float32, model string) error {
	m.writes++
	m.corpus = corpus
	m.vectors = vectors
	m.model = model
	return nil
}

// mockIndex is an exact inner-product search over stored vectors.
type mockIndex struct {
	vectors [][]float32
}

func (m *mockIndex) Search(query []float32, k int) ([]ports.Hit, error) {
	hits := make([]ports.Hit, len(m.vectors))
	for i, v := range m.vectors {
		var dot float64
		for j := range v {
			dot += float64(v[j]) * float64(query[j])
		}
		hits[i] = ports.Hit{Position: i, Score: dot}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockIndex) Len() int { return len(m.vectors) }

func (m *mockIndex) Dimension() int {
	if len(m.vectors) == 0 {
		return 0
	}
	return len(m.vectors[0])
}

// mockLLM records the prompt and returns a canned response.
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) Model() string { return "mock-llm" }

var errBoom = errors.New("boom")

func testCorpus() []entities.CodeEntry {
	var out []entities.CodeEntry
	for _, row := range [][2]string{
		{"A00.-", "Cholera"},
		{"A00.0", "Cholera due to Vibrio cholerae 01, biovar cholerae"},
		{"A01.0", "Typhoid fever"},
		{"J45.9", "Asthma, unspecified"},
		{"S72.0", "Fracture of neck of femur"},
	} {
		e, _ := entities.NewCodeEntry(row[0], row[1])
		out = append(out, e)
	}
	return out
}
