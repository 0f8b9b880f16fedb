package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
)

var (
	suggestTopK   int
	suggestFormat string
)

// NewSuggestCmd creates the suggest command.
func NewSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <note>",
		Short: "Suggest ICD-10 codes for one note",
		Long: `Run retrieval and model selection for a single clinical note
against the locally built artifacts and print the result.`,
		Example: `  icdrag suggest "Severe watery diarrhea after travel, suspected cholera"
  icdrag suggest --top-k 5 --format json "wheezing, known asthmatic"`,
		Args: cobra.ExactArgs(1),
		RunE: runSuggest,
	}

	cmd.Flags().IntVar(&suggestTopK, "top-k", 0, "Number of candidates to retrieve (0 uses ICD_DEFAULT_TOP_K)")
	cmd.Flags().StringVar(&suggestFormat, "format", "table", "Output format: table or json")

	return cmd
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if suggestFormat != "table" && suggestFormat != "json" {
		return fmt.Errorf("--format must be table or json, got %q", suggestFormat)
	}
	if suggestTopK < 0 {
		return fmt.Errorf("--top-k must be positive, got %d", suggestTopK)
	}

	cfg, log, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	uc, _, _, err := openSuggester(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	result, err := uc.Suggest(cmd.Context(), entities.SuggestRequest{Note: args[0], TopK: suggestTopK})
	if err != nil {
		return err
	}

	if suggestFormat == "json" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return nil
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(out io.Writer, r *entities.SuggestionResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tCODE\tSCORE\tTITLE")
	for i, c := range r.Candidates {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", i+1, c.Code, c.Score, c.Title)
	}
	w.Flush()
	fmt.Fprintln(out)

	if a := r.Answer; a != nil {
		fmt.Fprintf(out, "Primary: %s (confidence %.2f)\n", a.PrimaryCode, a.Confidence)
		if a.Reason != "" {
			fmt.Fprintf(out, "Reason:  %s\n", a.Reason)
		}
		for _, alt := range a.Alternatives {
			fmt.Fprintf(out, "  alt %s: %s\n", alt.Code, alt.Why)
		}
	} else {
		fmt.Fprintf(out, "Model answer:\n%s\n", r.ModelAnswer)
	}
	fmt.Fprintf(out, "\n%s\n", r.Disclaimer)
}
