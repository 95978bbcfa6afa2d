package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// Setting keys
const (
	SettingActiveRuleID = "active_rule_id"
)

// ruleRow is the flattened storage form of rules.Rule
type ruleRow struct {
	ID                   string    `db:"id"`
	Position             int       `db:"position"`
	Name                 string    `db:"name"`
	Description          string    `db:"description"`
	WeightRelevance      float64   `db:"weight_relevance"`
	WeightQuality        float64   `db:"weight_quality"`
	WeightFreshness      float64   `db:"weight_freshness"`
	WeightExternal       float64   `db:"weight_external"`
	ExpandThreshold      float64   `db:"expand_threshold"`
	MinWordCount         int       `db:"min_word_count"`
	MaxDaysForFresh      int       `db:"max_days_for_fresh"`
	PreferredDomains     string    `db:"preferred_domains"`
	KeywordBonus         string    `db:"keyword_bonus"`
	MinimumContentLength int       `db:"minimum_content_length"`
	CreatedAt            time.Time `db:"created_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

func newRuleRow(r rules.Rule, position int) (ruleRow, error) {
	domains, err := encodeList(r.QualityFactors.PreferredDomains)
	if err != nil {
		return ruleRow{}, fmt.Errorf("failed to encode preferred domains: %w", err)
	}
	keywords, err := encodeList(r.QualityFactors.KeywordBonus)
	if err != nil {
		return ruleRow{}, fmt.Errorf("failed to encode keyword bonus: %w", err)
	}

	return ruleRow{
		ID:                   r.ID,
		Position:             position,
		Name:                 r.Name,
		Description:          r.Description,
		WeightRelevance:      r.Weights.Relevance,
		WeightQuality:        r.Weights.Quality,
		WeightFreshness:      r.Weights.Freshness,
		WeightExternal:       r.Weights.External,
		ExpandThreshold:      r.Thresholds.ExpandThreshold,
		MinWordCount:         r.Thresholds.MinWordCount,
		MaxDaysForFresh:      r.Thresholds.MaxDaysForFresh,
		PreferredDomains:     domains,
		KeywordBonus:         keywords,
		MinimumContentLength: r.QualityFactors.MinimumContentLength,
		CreatedAt:            r.CreatedAt.UTC(),
		UpdatedAt:            r.UpdatedAt.UTC(),
	}, nil
}

func (row ruleRow) rule(activeID string) (rules.Rule, error) {
	var domains, keywords []string
	if err := json.Unmarshal([]byte(row.PreferredDomains), &domains); err != nil {
		return rules.Rule{}, fmt.Errorf("failed to decode preferred domains of %s: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(row.KeywordBonus), &keywords); err != nil {
		return rules.Rule{}, fmt.Errorf("failed to decode keyword bonus of %s: %w", row.ID, err)
	}

	return rules.Rule{
		ID: row.ID,
		RuleBody: rules.RuleBody{
			Name:        row.Name,
			Description: row.Description,
			Weights: rules.Weights{
				Relevance: row.WeightRelevance,
				Quality:   row.WeightQuality,
				Freshness: row.WeightFreshness,
				External:  row.WeightExternal,
			},
			Thresholds: rules.Thresholds{
				ExpandThreshold: row.ExpandThreshold,
				MinWordCount:    row.MinWordCount,
				MaxDaysForFresh: row.MaxDaysForFresh,
			},
			QualityFactors: rules.QualityFactors{
				PreferredDomains:     domains,
				KeywordBonus:         keywords,
				MinimumContentLength: row.MinimumContentLength,
			},
		},
		IsActive:  row.ID == activeID,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
