package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/researchdesk/internal/output"
	"github.com/vijay-prabhu/researchdesk/internal/research"
)

var (
	categorizeTopic string
	categorizeInput string
	categorizeRule  string
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize search results you already have",
	Long: `Categorize scores a JSON array of search results against the active
rule without running a search. Each record may carry title, url,
publishedDate, author, text and score (0-1).

Long texts are summarized when an LLM is configured.

Examples:
  researchdesk categorize --topic "edge computing" --input results.json
  cat results.json | researchdesk categorize --topic quantum -o json`,
	RunE: runCategorize,
}

func init() {
	rootCmd.AddCommand(categorizeCmd)
	categorizeCmd.Flags().StringVar(&categorizeTopic, "topic", "", "Topic the results were found for")
	categorizeCmd.Flags().StringVarP(&categorizeInput, "input", "i", "-", "JSON file with records (- for stdin)")
	categorizeCmd.Flags().StringVar(&categorizeRule, "rule", "", "Rule id to use instead of the active rule")
	_ = categorizeCmd.MarkFlagRequired("topic")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	records, err := readRecords(categorizeInput, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	override, err := ruleOverride(a.store, categorizeRule)
	if err != nil {
		return err
	}

	p, err := a.pipeline(ctx, false)
	if err != nil {
		return err
	}

	result := p.Categorize(ctx, categorizeTopic, records, override)
	return output.Output(outputFmt, result)
}

// readRecords decodes candidate records from a file or stdin
func readRecords(path string, stdin io.Reader) ([]research.CandidateRecord, error) {
	r := stdin
	if path != "-" && path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []research.CandidateRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}
