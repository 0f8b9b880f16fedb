// Package http provides the HTTP server infrastructure.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
	"github.com/0xcro3dile/icdrag-go/internal/domain/usecases"
)

const maxBodyBytes = 1 << 20

// Suggester is the use case the server exposes.
type Suggester interface {
	Suggest(ctx context.Context, req entities.SuggestRequest) (*entities.SuggestionResult, error)
	CorpusSize() int
}

// Info is reported by the health endpoint.
type Info struct {
	EmbedModel string
	LLMModel   string
	Version    string
}

// Server is the HTTP server for the suggestion API.
type Server struct {
	suggester Suggester
	info      Info
	addr      string
	logger    *slog.Logger
}

// NewServer creates a new HTTP server.
func NewServer(suggester Suggester, info Info, addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		suggester: suggester,
		info:      info,
		addr:      addr,
		logger:    logger,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/icd-suggest", s.handleSuggest)
	mux.HandleFunc("POST /icd-suggest", s.handleSuggest)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	return corsMiddleware(requestIDMiddleware(loggingMiddleware(s.logger, mux)))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      300 * time.Second, // generation can be slow
	}

	s.logger.Info("server starting",
		"addr", s.addr,
		"corpus", s.suggester.CorpusSize(),
		"embed_model", s.info.EmbedModel,
		"llm_model", s.info.LLMModel)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// suggestRequest accepts both topK and top_k.
type suggestRequest struct {
	Note    string `json:"note"`
	TopK    *int   `json:"topK"`
	TopKAlt *int   `json:"top_k"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	req := entities.SuggestRequest{Note: body.Note}
	switch {
	case body.TopK != nil:
		req.TopK = *body.TopK
	case body.TopKAlt != nil:
		req.TopK = *body.TopKAlt
	}

	result, err := s.suggester.Suggest(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("suggest failed", "request_id", RequestID(r.Context()), "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"corpus":      s.suggester.CorpusSize(),
		"embed_model": s.info.EmbedModel,
		"llm_model":   s.info.LLMModel,
		"version":     s.info.Version,
	})
}

func statusFor(err error) int {
	switch {
	case usecases.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, usecases.ErrInvalidModelAnswer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
