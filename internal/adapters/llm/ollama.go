// Package llm provides text-generation adapters implementing ports.LLMService.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Defaults for a local Ollama install.
const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "deepseek-r1:1.5b"
	DefaultTimeout     = 120 * time.Second
)

// OllamaLLMAdapter implements ports.LLMService using the Ollama generate API.
type OllamaLLMAdapter struct {
	baseURL string
	model   string
	format  string
	client  *http.Client
}

// OllamaOption configures an OllamaLLMAdapter.
type OllamaOption func(*OllamaLLMAdapter)

// WithTimeout bounds a whole generate call. Local inference can take minutes.
func WithTimeout(d time.Duration) OllamaOption {
	return func(a *OllamaLLMAdapter) {
		if d > 0 {
			a.client.Timeout = d
		}
	}
}

// WithFormat sets the Ollama "format" field, e.g. "json".
func WithFormat(format string) OllamaOption {
	return func(a *OllamaLLMAdapter) {
		a.format = format
	}
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(baseURL, model string, opts ...OllamaOption) *OllamaLLMAdapter {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	a := &OllamaLLMAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// ollamaGenerateResponse is the Ollama generate API response.
type ollamaGenerateResponse struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
}

// Model returns the generation model name.
func (a *OllamaLLMAdapter) Model() string {
	return a.model
}

// Generate sends one non-streaming request. Any non-200 status is an error.
func (a *OllamaLLMAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(ollamaGenerateRequest{
		Model:  a.model,
		Prompt: prompt,
		Stream: false,
		Format: a.format,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var genResp ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if genResp.Error != "" {
		return "", fmt.Errorf("Ollama error: %s", genResp.Error)
	}
	if genResp.Response == nil {
		return "", errors.New("decoding response: missing \"response\" field")
	}
	return *genResp.Response, nil
}
