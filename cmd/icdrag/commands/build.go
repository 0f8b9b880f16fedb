package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/icdrag-go/internal/adapters/artifact"
	"github.com/0xcro3dile/icdrag-go/internal/adapters/filewatcher"
	"github.com/0xcro3dile/icdrag-go/internal/adapters/source"
	"github.com/0xcro3dile/icdrag-go/internal/domain/usecases"
)

var (
	buildSource string
	buildWatch  bool
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed the ICD-10 code table and write the artifacts",
		Long: `Read the semicolon-separated ICD-10 code table, drop duplicate
(code, title) pairs, embed every entry and write the corpus
(icd10_meta.json) and vector store (icd10_vectors.db) to the data directory.

With --watch the table is rebuilt whenever the source file changes.`,
		Example: `  icdrag build
  icdrag build --source icd102019enMeta/icd102019syst_codes.txt --data-dir ./data
  icdrag build --watch`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}

	cmd.Flags().StringVar(&buildSource, "source", "", "Source table path (overrides ICD_SOURCE_PATH)")
	cmd.Flags().BoolVar(&buildWatch, "watch", false, "Rebuild when the source file changes")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}
	if buildSource != "" {
		cfg.Source.Path = buildSource
	}

	reader, err := source.NewSemicolonReader(source.Layout{
		Delimiter:  ";",
		CodeField:  cfg.Source.CodeField,
		TitleField: cfg.Source.TitleField,
		MinFields:  cfg.Source.MinFields,
		Encoding:   cfg.Source.Encoding,
	})
	if err != nil {
		return err
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	uc := usecases.NewBuildUseCase(reader, embedder, artifact.NewWriter(cfg.DataDir, log), cfg.Embed.BatchSize,
		usecases.WithBuildLogger(log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := uc.Build(ctx, cfg.Source.Path)
	if err != nil {
		return err
	}
	printReport(cmd, report, cfg.DataDir)

	if !buildWatch {
		return nil
	}

	watcher, err := filewatcher.NewFSNotifyWatcher([]string{filepath.Base(cfg.Source.Path)}, log)
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	return uc.Watch(ctx, cfg.Source.Path, watcher, usecases.DefaultDebounce, func(r *usecases.BuildReport, err error) {
		if err == nil {
			printReport(cmd, r, cfg.DataDir)
		}
	})
}

func printReport(cmd *cobra.Command, r *usecases.BuildReport, dir string) {
	corpus, vectors := artifact.Paths(dir)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Built %d entries (dimension %d) from %s\n", r.Entries, r.Dimension, r.Source)
	fmt.Fprintf(out, "  skipped: %d short rows, %d empty rows, %d duplicates\n", r.Short, r.Empty, r.Duplicates)
	fmt.Fprintf(out, "  corpus:  %s\n", corpus)
	fmt.Fprintf(out, "  vectors: %s\n", vectors)
}
