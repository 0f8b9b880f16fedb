package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpserver "github.com/0xcro3dile/icdrag-go/internal/infrastructure/http"
)

var serveAddr string

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP suggestion API",
		Long: `Load the built artifacts and serve the suggestion API.

Endpoints:
  POST /api/icd-suggest   {"note": "...", "topK": 10}
  POST /icd-suggest       same as above
  GET  /api/health        corpus size and configured models`,
		Example: `  icdrag serve
  icdrag serve --addr 127.0.0.1:8000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.HTTPAddr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uc, embedder, gen, err := openSuggester(ctx, cfg, log)
	if err != nil {
		return err
	}

	server := httpserver.NewServer(uc, httpserver.Info{
		EmbedModel: embedder.Model(),
		LLMModel:   gen.Model(),
		Version:    versionInfo.Version,
	}, cfg.HTTPAddr, log)
	return server.Start(ctx)
}
