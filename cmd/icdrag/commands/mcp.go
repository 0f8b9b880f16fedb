package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/icdrag-go/internal/infrastructure/mcp"
)

// NewMCPCmd creates the MCP command.
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Serves the icd_suggest tool over stdio using the Model Context Protocol,
so agents can request ICD-10 suggestions for a note. Logs go to stderr.`,
		Example: `  # claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "icdrag": {
  #       "command": "icdrag",
  #       "args": ["mcp", "--data-dir", "/path/to/artifacts"]
  #     }
  #   }
  # }`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}

	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol
	cfg, log, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uc, _, _, err := openSuggester(ctx, cfg, log)
	if err != nil {
		return err
	}

	server := mcp.NewServer("icdrag", versionInfo.Version, uc, log)
	log.Info("MCP server starting on stdio", "corpus", uc.CorpusSize())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
