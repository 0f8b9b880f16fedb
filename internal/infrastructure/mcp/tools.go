// Package mcp exposes code suggestion as a Model Context Protocol tool.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
	"github.com/0xcro3dile/icdrag-go/internal/domain/usecases"
)

// ToolName is the registered tool name.
const ToolName = "icd_suggest"

// Suggester is the use case behind the tool.
type Suggester interface {
	Suggest(ctx context.Context, req entities.SuggestRequest) (*entities.SuggestionResult, error)
}

// Handlers holds the tool handler dependencies.
type Handlers struct {
	suggester Suggester
	logger    *slog.Logger
}

// NewServer creates an MCP server with the suggestion tool registered.
func NewServer(name, version string, suggester Suggester, logger *slog.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(name, version)
	RegisterTools(server, suggester, logger)
	return server
}

// RegisterTools registers icd_suggest on server.
func RegisterTools(server *mcpserver.MCPServer, suggester Suggester, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{suggester: suggester, logger: logger}

	server.AddTool(mcp.Tool{
		Name: ToolName,
		Description: "Suggest ICD-10 codes for a free-text clinical note. Returns the retrieved candidate codes " +
			"with similarity scores and the model's pick. Decision support only, not a diagnosis.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"note": map[string]interface{}{
					"type":        "string",
					"description": "Free-text clinical note",
				},
				"top_k": map[string]interface{}{
					"type":        "number",
					"description": "Number of candidate codes to retrieve (default: 10)",
					"default":     usecases.DefaultTopK,
				},
			},
			Required: []string{"note"},
		},
	}, h.Suggest)

	return h
}

// Suggest handles the icd_suggest tool.
func (h *Handlers) Suggest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	note, err := request.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError("note argument is required and must be a string"), nil
	}
	topK := request.GetInt("top_k", 0)

	result, err := h.suggester.Suggest(ctx, entities.SuggestRequest{Note: note, TopK: topK})
	if err != nil {
		if !usecases.IsClientError(err) && !errors.Is(err, usecases.ErrInvalidModelAnswer) {
			h.logger.Error("icd_suggest failed", "error", err)
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
