// Package commands implements the icdrag CLI.
package commands

import (
	"github.com/spf13/cobra"
)

// Global flags
var (
	envFile  string
	dataDir  string
	logLevel string
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "icdrag",
		Short: "Suggest ICD-10 codes for clinical notes",
		Long: `icdrag suggests ICD-10 codes for free-text clinical notes.

It embeds the ICD-10 code table once (build), then for each note retrieves
the most similar codes and asks a language model to pick among them.
Results are decision support only, not a diagnosis.

Configuration comes from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Environment file to load (missing file is ignored)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Artifact directory (overrides ICD_DATA_DIR)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	cmd.AddCommand(
		NewBuildCmd(),
		NewServeCmd(),
		NewSuggestCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
