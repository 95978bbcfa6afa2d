package cli

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vijay-prabhu/researchdesk/internal/output"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage categorization rules",
	Long: `Rules decide how research results are scored. Each rule has four weights
(relevance, quality, freshness, search score), an expand threshold and
quality factors. Exactly one rule is active at a time; the "default" rule
always exists and cannot be deleted.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules (* marks the active one)",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a rule (default: the active rule)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRulesShow,
}

var rulesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a rule from flags or a TOML file",
	Long: `Create a new, inactive rule. Values not given on the command line are
taken from the balanced preset.

A TOML file uses the same keys as the flags:

  name = "Tech news"
  [weights]
  relevance = 60
  quality = 20
  freshness = 15
  exa_score = 5
  [thresholds]
  expand_threshold = 80
  min_word_count = 100
  max_days_for_fresh = 14
  [quality_factors]
  preferred_domains = ["arstechnica.com"]
  keyword_bonus = ["benchmark"]
  minimum_content_length = 100

Examples:
  researchdesk rules create --name "Tech news" --relevance 60 --threshold 80
  researchdesk rules create --file tech.toml`,
	Args: cobra.NoArgs,
	RunE: runRulesCreate,
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesUpdate,
}

var rulesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a rule (the default rule is protected)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesDelete,
}

var rulesActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Make a rule the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesActivate,
}

var rulesApplyPresetCmd = &cobra.Command{
	Use:   "apply-preset <preset>",
	Short: "Create a rule from a preset and activate it",
	Long: `Create a new rule from a built-in preset and make it active.
Run 'researchdesk presets' to see the available presets.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesApplyPreset,
}

var ruleFile string

func init() {
	rootCmd.AddCommand(rulesCmd, presetsCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesShowCmd, rulesCreateCmd, rulesUpdateCmd,
		rulesDeleteCmd, rulesActivateCmd, rulesApplyPresetCmd)

	addRuleFlags(rulesCreateCmd.Flags())
	rulesCreateCmd.Flags().StringVar(&ruleFile, "file", "", "TOML file describing the rule")
	addRuleFlags(rulesUpdateCmd.Flags())
}

func addRuleFlags(fs *pflag.FlagSet) {
	fs.String("name", "", "Rule name")
	fs.String("description", "", "Rule description")
	fs.Float64("relevance", 0, "Relevance weight")
	fs.Float64("quality", 0, "Quality weight")
	fs.Float64("freshness", 0, "Freshness weight")
	fs.Float64("search-score", 0, "Search provider score weight")
	fs.Float64("threshold", 0, "Priority (0-100) at which a result is worth expanding")
	fs.Int("min-words", 0, "Word count that earns the top length tier")
	fs.Int("max-days", 0, "Age in days that still counts as fresh")
	fs.StringSlice("domains", nil, "Preferred domains")
	fs.StringSlice("keywords", nil, "Keywords that earn a data bonus")
	fs.Int("min-length", 0, "Minimum content length")
}

// applyRuleFlags overwrites body fields for every flag the user set
func applyRuleFlags(fs *pflag.FlagSet, body *rules.RuleBody) {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *float64) {
		if fs.Changed(name) {
			*dst, _ = fs.GetFloat64(name)
		}
	}
	integer := func(name string, dst *int) {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	list := func(name string, dst *[]string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetStringSlice(name)
		}
	}

	str("name", &body.Name)
	str("description", &body.Description)
	num("relevance", &body.Weights.Relevance)
	num("quality", &body.Weights.Quality)
	num("freshness", &body.Weights.Freshness)
	num("search-score", &body.Weights.External)
	num("threshold", &body.Thresholds.ExpandThreshold)
	integer("min-words", &body.Thresholds.MinWordCount)
	integer("max-days", &body.Thresholds.MaxDaysForFresh)
	list("domains", &body.QualityFactors.PreferredDomains)
	list("keywords", &body.QualityFactors.KeywordBonus)
	integer("min-length", &body.QualityFactors.MinimumContentLength)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	return output.Output(outputFmt, a.store.ListRules())
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rule := a.store.GetActiveRule()
	if len(args) == 1 {
		rule, err = a.store.GetRule(args[0])
		if err != nil {
			return err
		}
	}
	return output.Output(outputFmt, rule)
}

func runRulesCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	body, err := baseRuleBody(ruleFile)
	if err != nil {
		return err
	}
	applyRuleFlags(cmd.Flags(), &body)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rule, err := a.store.CreateRule(ctx, body)
	if err != nil {
		return err
	}

	fmt.Printf("Created rule %s (%s)\n", rule.ID, rule.Name)
	fmt.Printf("Run 'researchdesk rules activate %s' to use it.\n", rule.ID)
	return nil
}

// baseRuleBody starts from the balanced preset, or from a TOML file
func baseRuleBody(path string) (rules.RuleBody, error) {
	balanced, _ := rules.PresetByID("balanced")
	body := balanced.Body()
	body.Name = ""
	body.Description = ""

	if path == "" {
		return body, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules.RuleBody{}, fmt.Errorf("failed to read rule file: %w", err)
	}
	if err := toml.Unmarshal(data, &body); err != nil {
		return rules.RuleBody{}, fmt.Errorf("failed to parse rule file: %w", err)
	}
	return body, nil
}

func runRulesUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.store.GetRule(args[0])
	if err != nil {
		return err
	}

	body := current.RuleBody
	applyRuleFlags(cmd.Flags(), &body)

	rule, err := a.store.UpdateRule(ctx, args[0], rules.RuleUpdate{
		Name:           &body.Name,
		Description:    &body.Description,
		Weights:        &body.Weights,
		Thresholds:     &body.Thresholds,
		QualityFactors: &body.QualityFactors,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Updated rule %s (%s)\n", rule.ID, rule.Name)
	return nil
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteRule(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Deleted rule %s\n", args[0])
	fmt.Printf("Active rule: %s\n", a.store.ActiveRuleID())
	return nil
}

func runRulesActivate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rule, err := a.store.ActivateRule(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Active rule: %s (%s)\n", rule.ID, rule.Name)
	return nil
}

func runRulesApplyPreset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	rule, err := a.store.ApplyPreset(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Created and activated %s (%s)\n", rule.ID, rule.Name)
	return nil
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in rule presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return output.Output(outputFmt, rules.Presets())
	},
}
