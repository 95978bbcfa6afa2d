package mcp

import (
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// ResearchTopicInput is the input for research_topic
type ResearchTopicInput struct {
	Topic          string   `json:"topic" jsonschema:"the subject to research"`
	NumResults     int      `json:"num_results,omitempty" jsonschema:"maximum number of search results (default 20)"`
	DaysBack       int      `json:"days_back,omitempty" jsonschema:"only include content published in the last N days (default 15)"`
	IncludeDomains []string `json:"include_domains,omitempty" jsonschema:"restrict results to these domains"`
	ExcludeDomains []string `json:"exclude_domains,omitempty" jsonschema:"drop results from these domains"`
	RuleID         string   `json:"rule_id,omitempty" jsonschema:"rule to categorize with instead of the active rule"`
}

// CategorizeInput is the input for categorize_records
type CategorizeInput struct {
	Topic   string        `json:"topic" jsonschema:"the subject the records were found for"`
	Records []RecordInput `json:"records" jsonschema:"search results to categorize"`
	RuleID  string        `json:"rule_id,omitempty" jsonschema:"rule to categorize with instead of the active rule"`
}

// RecordInput is one search result supplied by the client
type RecordInput struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	PublishedDate string   `json:"published_date,omitempty" jsonschema:"ISO 8601 publication date"`
	Author        string   `json:"author,omitempty"`
	Text          string   `json:"text,omitempty" jsonschema:"page content"`
	Score         *float64 `json:"score,omitempty" jsonschema:"search provider score between 0 and 1"`
}

// ResultOutput is the categorized result of a run
type ResultOutput struct {
	Topic           string         `json:"topic"`
	Query           string         `json:"query,omitempty"`
	RuleID          string         `json:"rule_id"`
	RuleName        string         `json:"rule_name"`
	ExpandWorthy    []RecordOutput `json:"expand_worthy"`
	NotExpandWorthy []RecordOutput `json:"not_expand_worthy"`
	Total           int            `json:"total"`
}

// RecordOutput is one categorized record
type RecordOutput struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"published_date,omitempty"`
	Author        string  `json:"author,omitempty"`
	Text          string  `json:"text"`
	Category      string  `json:"category"`
	Priority      int     `json:"priority"`
	FinalScore    float64 `json:"final_score"`
	Relevance     float64 `json:"relevance"`
	Quality       float64 `json:"quality"`
	Freshness     float64 `json:"freshness"`
	SearchScore   float64 `json:"search_score"`
	Reasoning     string  `json:"reasoning"`
}

// RuleIDInput selects a rule
type RuleIDInput struct {
	ID string `json:"id" jsonschema:"rule identifier"`
}

// PresetInput selects a preset
type PresetInput struct {
	PresetID string `json:"preset_id" jsonschema:"one of balanced, quality-focused, freshness-focused, relevance-focused"`
}

// Empty is the input for tools without arguments
type Empty struct{}

// RuleOutput describes a rule
type RuleOutput struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Active            bool     `json:"active"`
	RelevanceWeight   float64  `json:"relevance_weight"`
	QualityWeight     float64  `json:"quality_weight"`
	FreshnessWeight   float64  `json:"freshness_weight"`
	SearchScoreWeight float64  `json:"search_score_weight"`
	ExpandThreshold   float64  `json:"expand_threshold"`
	MinWordCount      int      `json:"min_word_count"`
	MaxDaysForFresh   int      `json:"max_days_for_fresh"`
	PreferredDomains  []string `json:"preferred_domains,omitempty"`
	KeywordBonus      []string `json:"keyword_bonus,omitempty"`
	UpdatedAt         string   `json:"updated_at"`
}

// RulesOutput lists rules
type RulesOutput struct {
	Rules    []RuleOutput `json:"rules"`
	ActiveID string       `json:"active_id"`
}

// PresetOutput describes a built-in preset
type PresetOutput struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Icon            string  `json:"icon"`
	ExpandThreshold float64 `json:"expand_threshold"`
}

// PresetsOutput lists presets
type PresetsOutput struct {
	Presets []PresetOutput `json:"presets"`
}

// registerTools registers all tool handlers with the MCP server
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "research_topic",
		Description: "Search recent content on a topic, summarize it and split the results into worth-expanding and other, ordered by priority.",
	}, s.handleResearchTopic)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "categorize_records",
		Description: "Score and categorize search results you already have against the active rule or a chosen one.",
	}, s.handleCategorize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List categorization rules. Exactly one rule is active at any time.",
	}, s.handleListRules)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "activate_rule",
		Description: "Make a rule the active one for future categorization.",
	}, s.handleActivateRule)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "apply_preset",
		Description: "Create a new rule from a built-in preset and activate it.",
	}, s.handleApplyPreset)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_presets",
		Description: "List the built-in rule presets.",
	}, s.handleListPresets)
}

func (in RecordInput) candidate() research.CandidateRecord {
	return research.CandidateRecord{
		Title:         in.Title,
		URL:           in.URL,
		PublishedDate: in.PublishedDate,
		Author:        in.Author,
		Text:          in.Text,
		ExternalScore: in.Score,
	}
}

func toResultOutput(r *research.Result) ResultOutput {
	out := ResultOutput{
		Topic:           r.Topic,
		Query:           r.Query,
		RuleID:          r.RuleID,
		RuleName:        r.RuleName,
		ExpandWorthy:    make([]RecordOutput, 0, len(r.ExpandWorthy)),
		NotExpandWorthy: make([]RecordOutput, 0, len(r.NotExpandWorthy)),
		Total:           r.Total(),
	}
	for _, rec := range r.ExpandWorthy {
		out.ExpandWorthy = append(out.ExpandWorthy, toRecordOutput(rec))
	}
	for _, rec := range r.NotExpandWorthy {
		out.NotExpandWorthy = append(out.NotExpandWorthy, toRecordOutput(rec))
	}
	return out
}

func toRecordOutput(r research.CategorizedRecord) RecordOutput {
	return RecordOutput{
		Title:         r.Title,
		URL:           r.URL,
		PublishedDate: r.PublishedDate,
		Author:        r.Author,
		Text:          r.Text,
		Category:      string(r.Category),
		Priority:      r.Priority,
		FinalScore:    r.FinalScore,
		Relevance:     r.Breakdown.Relevance,
		Quality:       r.Breakdown.Quality,
		Freshness:     r.Breakdown.Freshness,
		SearchScore:   r.Breakdown.ExternalScore,
		Reasoning:     r.Reasoning,
	}
}

func toRuleOutput(r rules.Rule) RuleOutput {
	return RuleOutput{
		ID:                r.ID,
		Name:              r.Name,
		Description:       r.Description,
		Active:            r.IsActive,
		RelevanceWeight:   r.Weights.Relevance,
		QualityWeight:     r.Weights.Quality,
		FreshnessWeight:   r.Weights.Freshness,
		SearchScoreWeight: r.Weights.External,
		ExpandThreshold:   r.Thresholds.ExpandThreshold,
		MinWordCount:      r.Thresholds.MinWordCount,
		MaxDaysForFresh:   r.Thresholds.MaxDaysForFresh,
		PreferredDomains:  r.QualityFactors.PreferredDomains,
		KeywordBonus:      r.QualityFactors.KeywordBonus,
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
}
