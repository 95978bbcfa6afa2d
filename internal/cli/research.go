package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/output"
	"github.com/vijay-prabhu/researchdesk/internal/pipeline"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

var (
	researchResults   int
	researchDays      int
	researchInclude   []string
	researchExclude   []string
	researchRule      string
	researchNoRewrite bool
)

var researchCmd = &cobra.Command{
	Use:   "research <topic>",
	Short: "Research a topic and rank what is worth expanding",
	Long: `Research searches recent content on a topic, summarizes long pages and
splits the results into "worth expanding" and the rest, ordered by priority.

The active rule decides the weights and threshold; pass --rule to use
another one for this run only.

Examples:
  researchdesk research "edge computing"
  researchdesk research "inteligencia artificial" --days=7
  researchdesk research quantum --include reuters.com --include bbc.com
  researchdesk research quantum --rule default -o csv > quantum.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)
	researchCmd.Flags().IntVar(&researchResults, "results", 0, "Maximum number of search results (default from config)")
	researchCmd.Flags().IntVar(&researchDays, "days", 0, "Only content published in the last N days (default from config)")
	researchCmd.Flags().StringSliceVar(&researchInclude, "include", nil, "Only search these domains")
	researchCmd.Flags().StringSliceVar(&researchExclude, "exclude", nil, "Skip these domains")
	researchCmd.Flags().StringVar(&researchRule, "rule", "", "Rule id to use instead of the active rule")
	researchCmd.Flags().BoolVar(&researchNoRewrite, "no-rewrite", false, "Search the topic as typed, without LLM query optimization")
}

func runResearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	topic := strings.Join(args, " ")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	override, err := ruleOverride(a.store, researchRule)
	if err != nil {
		return err
	}

	p, err := a.pipeline(ctx, true)
	if err != nil {
		return err
	}

	terminal := NewTerminal()
	result, err := p.Run(ctx, topic, pipeline.RunOptions{
		NumResults:     researchResults,
		DaysBack:       researchDays,
		IncludeDomains: researchInclude,
		ExcludeDomains: researchExclude,
		Rule:           override,
		SkipOptimize:   researchNoRewrite,
		Progress:       terminal.Progress(),
	})
	terminal.ClearLine()
	if err != nil {
		a.log.Debug("research failed", logger.Err(err))
		fmt.Fprintln(os.Stderr, terminal.Color(ColorRed, research.UserMessage(err)))
		return fmt.Errorf("research failed: %w", err)
	}

	return output.Output(outputFmt, result)
}

// ruleOverride resolves an optional rule id against the store
func ruleOverride(store *rules.Store, id string) (*rules.Rule, error) {
	if id == "" {
		return nil, nil
	}
	r, err := store.GetRule(id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
