package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// Table writes data as a formatted table to stdout
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *research.Result:
		return resultTables(w, v)
	case []rules.Rule:
		return rulesTable(w, v)
	case rules.Rule:
		return ruleDetail(w, &v)
	case *rules.Rule:
		return ruleDetail(w, v)
	case []rules.Preset:
		return presetsTable(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func resultTables(w io.Writer, r *research.Result) error {
	fmt.Fprintf(w, "Topic:  %s\n", r.Topic)
	if r.Query != "" && r.Query != r.Topic {
		fmt.Fprintf(w, "Query:  %s\n", r.Query)
	}
	if r.RuleName != "" {
		fmt.Fprintf(w, "Rule:   %s (%s)\n", r.RuleName, r.RuleID)
	}

	if r.Total() == 0 {
		fmt.Fprintln(w, "\nNo results found.")
		return nil
	}

	fmt.Fprintf(w, "\nWorth expanding (%d)\n", len(r.ExpandWorthy))
	if err := recordsTable(w, r.ExpandWorthy); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nOther results (%d)\n", len(r.NotExpandWorthy))
	return recordsTable(w, r.NotExpandWorthy)
}

func recordsTable(w io.Writer, records []research.CategorizedRecord) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Priority", "Title", "Source", "Published", "Reasoning")

	for _, r := range records {
		if err := table.Append(
			strconv.Itoa(r.Priority),
			truncate(r.Title, 50),
			truncate(host(r.URL), 30),
			formatDate(r.PublishedDate),
			truncate(r.Reasoning, 60),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

func rulesTable(w io.Writer, list []rules.Rule) error {
	if len(list) == 0 {
		fmt.Fprintln(w, "No rules found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("", "ID", "Name", "Weights R/Q/F/S", "Threshold", "Updated")

	for _, r := range list {
		active := ""
		if r.IsActive {
			active = "*"
		}
		if err := table.Append(
			active,
			r.ID,
			truncate(r.Name, 30),
			formatWeights(r.Weights),
			formatNumber(r.Thresholds.ExpandThreshold),
			r.UpdatedAt.Format("Jan 02, 2006 15:04"),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

func ruleDetail(w io.Writer, r *rules.Rule) error {
	status := "inactive"
	if r.IsActive {
		status = "active"
	}

	fmt.Fprintf(w, "ID:          %s (%s)\n", r.ID, status)
	fmt.Fprintf(w, "Name:        %s\n", r.Name)
	if r.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", r.Description)
	}
	fmt.Fprintln(w)

	n := r.Weights.Normalized()
	fmt.Fprintln(w, "Weights:")
	fmt.Fprintf(w, "  relevance       %6s  (%.0f%%)\n", formatNumber(r.Weights.Relevance), n.Relevance*100)
	fmt.Fprintf(w, "  quality         %6s  (%.0f%%)\n", formatNumber(r.Weights.Quality), n.Quality*100)
	fmt.Fprintf(w, "  freshness       %6s  (%.0f%%)\n", formatNumber(r.Weights.Freshness), n.Freshness*100)
	fmt.Fprintf(w, "  search score    %6s  (%.0f%%)\n", formatNumber(r.Weights.External), n.External*100)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Thresholds:")
	fmt.Fprintf(w, "  expand at       %s\n", formatNumber(r.Thresholds.ExpandThreshold))
	fmt.Fprintf(w, "  min words       %d\n", r.Thresholds.MinWordCount)
	fmt.Fprintf(w, "  fresh within    %d days\n", r.Thresholds.MaxDaysForFresh)

	q := r.QualityFactors
	if len(q.PreferredDomains) > 0 || len(q.KeywordBonus) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Quality factors:")
		if len(q.PreferredDomains) > 0 {
			fmt.Fprintf(w, "  domains         %s\n", strings.Join(q.PreferredDomains, ", "))
		}
		if len(q.KeywordBonus) > 0 {
			fmt.Fprintf(w, "  keywords        %s\n", strings.Join(q.KeywordBonus, ", "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Updated:     %s\n", r.UpdatedAt.Format("Jan 02, 2006 15:04"))

	return nil
}

func presetsTable(w io.Writer, presets []rules.Preset) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Weights R/Q/F/S", "Threshold", "Description")

	for _, p := range presets {
		if err := table.Append(
			p.ID,
			p.Icon+" "+p.Name,
			formatWeights(p.Weights),
			formatNumber(p.Thresholds.ExpandThreshold),
			truncate(p.Description, 50),
		); err != nil {
			return err
		}
	}

	return table.Render()
}

func formatWeights(wt rules.Weights) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		formatNumber(wt.Relevance), formatNumber(wt.Quality),
		formatNumber(wt.Freshness), formatNumber(wt.External))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatDate shortens provider timestamps to the calendar date
func formatDate(s string) string {
	if len(s) >= 10 {
		return s[:10]
	}
	if s == "" {
		return "-"
	}
	return s
}

// host strips the scheme and path from a URL for compact display
func host(u string) string {
	u = strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	u = strings.TrimPrefix(u, "www.")
	if i := strings.IndexByte(u, '/'); i >= 0 {
		u = u[:i]
	}
	return u
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
