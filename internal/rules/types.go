// Package rules defines categorization rules, the built-in presets and the
// store that keeps exactly one rule active.
package rules

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultRuleID identifies the protected rule seeded from the balanced preset
const DefaultRuleID = "default"

// Errors returned by the store and validation
var (
	ErrRuleNotFound   = errors.New("rule not found")
	ErrPresetNotFound = errors.New("preset not found")
	ErrProtectedRule  = errors.New("the default rule cannot be deleted")
	ErrInvalidRule    = errors.New("invalid rule")
)

// IsConfigurationError reports whether err stems from a bad rule or rule id
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrPresetNotFound) ||
		errors.Is(err, ErrProtectedRule)
}

// Weights are the relative importance of each sub-score
type Weights struct {
	Relevance float64 `json:"relevance" toml:"relevance" validate:"gte=0"`
	Quality   float64 `json:"quality" toml:"quality" validate:"gte=0"`
	Freshness float64 `json:"freshness" toml:"freshness" validate:"gte=0"`
	External  float64 `json:"exaScore" toml:"exa_score" validate:"gte=0"`
}

// Total returns the sum of all weights
func (w Weights) Total() float64 {
	return w.Relevance + w.Quality + w.Freshness + w.External
}

// Normalized returns the weights divided by their total.
// A non-positive total yields an even split.
func (w Weights) Normalized() Weights {
	total := w.Total()
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return Weights{Relevance: 0.25, Quality: 0.25, Freshness: 0.25, External: 0.25}
	}
	return Weights{
		Relevance: w.Relevance / total,
		Quality:   w.Quality / total,
		Freshness: w.Freshness / total,
		External:  w.External / total,
	}
}

// Thresholds control the decision cut-off and sub-score tiers
type Thresholds struct {
	ExpandThreshold float64 `json:"expandThreshold" toml:"expand_threshold" validate:"gte=0,lte=100"`
	MinWordCount    int     `json:"minWordCount" toml:"min_word_count" validate:"gt=0"`
	MaxDaysForFresh int     `json:"maxDaysForFresh" toml:"max_days_for_fresh" validate:"gt=0"`
}

// QualityFactors tune the quality sub-score
type QualityFactors struct {
	PreferredDomains     []string `json:"preferredDomains" toml:"preferred_domains"`
	KeywordBonus         []string `json:"keywordBonus" toml:"keyword_bonus"`
	MinimumContentLength int      `json:"minimumContentLength" toml:"minimum_content_length" validate:"gt=0"`
}

func (q QualityFactors) clone() QualityFactors {
	q.PreferredDomains = slices.Clone(q.PreferredDomains)
	q.KeywordBonus = slices.Clone(q.KeywordBonus)
	return q
}

// RuleBody is the user-editable part of a rule
type RuleBody struct {
	Name           string         `json:"name" toml:"name" validate:"required"`
	Description    string         `json:"description" toml:"description"`
	Weights        Weights        `json:"weights" toml:"weights"`
	Thresholds     Thresholds     `json:"thresholds" toml:"thresholds"`
	QualityFactors QualityFactors `json:"qualityFactors" toml:"quality_factors"`
}

// Rule is a persisted, named categorization configuration
type Rule struct {
	ID string `json:"id"`
	RuleBody
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot mutate store state
func (r Rule) Clone() Rule {
	r.QualityFactors = r.QualityFactors.clone()
	return r
}

// RuleUpdate carries a partial update; nil fields are left unchanged
type RuleUpdate struct {
	Name           *string         `json:"name,omitempty"`
	Description    *string         `json:"description,omitempty"`
	Weights        *Weights        `json:"weights,omitempty"`
	Thresholds     *Thresholds     `json:"thresholds,omitempty"`
	QualityFactors *QualityFactors `json:"qualityFactors,omitempty"`
}

func (u RuleUpdate) apply(body RuleBody) RuleBody {
	if u.Name != nil {
		body.Name = *u.Name
	}
	if u.Description != nil {
		body.Description = *u.Description
	}
	if u.Weights != nil {
		body.Weights = *u.Weights
	}
	if u.Thresholds != nil {
		body.Thresholds = *u.Thresholds
	}
	if u.QualityFactors != nil {
		body.QualityFactors = u.QualityFactors.clone()
	}
	return body
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a rule body and returns an error wrapping ErrInvalidRule
func Validate(body RuleBody) error {
	if err := structValidator().Struct(body); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	total := body.Weights.Total()
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return fmt.Errorf("%w: weights must be finite", ErrInvalidRule)
	}
	if total <= 0 {
		return fmt.Errorf("%w: weights must sum to a positive total", ErrInvalidRule)
	}

	return nil
}
