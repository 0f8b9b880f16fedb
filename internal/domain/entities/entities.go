// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import (
	"fmt"
	"strings"
)

// Disclaimer is attached to every suggestion result.
const Disclaimer = "Coding assistance only. Not a medical diagnosis."

// CodeEntry is one coded term of the corpus.
// The (Code, Title) pair is unique within a corpus.
type CodeEntry struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Text  string `json:"text"` // embedding text, "{code} - {title}"
}

// NewCodeEntry normalizes the raw code, trims the title and fills the embedding text.
// ok is false when either field ends up empty.
func NewCodeEntry(rawCode, rawTitle string) (entry CodeEntry, ok bool) {
	code := NormalizeCode(rawCode)
	title := strings.TrimSpace(rawTitle)
	if code == "" || title == "" {
		return CodeEntry{}, false
	}
	return CodeEntry{
		Code:  code,
		Title: title,
		Text:  EmbeddingText(code, title),
	}, true
}

// NormalizeCode collapses category placeholders such as "A00.-" to their parent code.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, ".-", "")
	return strings.ReplaceAll(code, "-", "")
}

// EmbeddingText is the canonical string fed to the embedder.
func EmbeddingText(code, title string) string {
	return fmt.Sprintf("%s - %s", code, title)
}

// Key identifies an entry for deduplication.
func (e CodeEntry) Key() string {
	return e.Code + "\x00" + e.Title
}

// Candidate is a ranked retrieval hit.
type Candidate struct {
	Code  string  `json:"code"`
	Title string  `json:"title"`
	Score float64 `json:"score"` // cosine similarity in [-1, 1]
}

// Alternative is a secondary code proposed by the model.
type Alternative struct {
	Code string `json:"code"`
	Why  string `json:"why"`
}

// ModelAnswer is the structured answer the model is instructed to return.
type ModelAnswer struct {
	PrimaryCode  string        `json:"primary_code"`
	Confidence   float64       `json:"confidence"`
	Reason       string        `json:"reason"`
	Alternatives []Alternative `json:"alternatives"`
}

// SuggestRequest is an inbound suggestion request.
type SuggestRequest struct {
	Note string
	TopK int
}

// SuggestionResult is returned whole or not at all.
type SuggestionResult struct {
	Candidates  []Candidate  `json:"candidates"`
	ModelAnswer string       `json:"modelAnswer"`
	Answer      *ModelAnswer `json:"answer,omitempty"`
	Disclaimer  string       `json:"disclaimer"`
}
