package rules

import (
	"fmt"
	"time"
)

// Preset is a named, read-only starting point for a rule
type Preset struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Icon           string         `json:"icon"`
	Weights        Weights        `json:"weights"`
	Thresholds     Thresholds     `json:"thresholds"`
	QualityFactors QualityFactors `json:"qualityFactors"`
}

// Body converts the preset into an editable rule body
func (p Preset) Body() RuleBody {
	return RuleBody{
		Name:           p.Name + " (Custom)",
		Description:    "Based on preset: " + p.Description,
		Weights:        p.Weights,
		Thresholds:     p.Thresholds,
		QualityFactors: p.QualityFactors.clone(),
	}
}

var builtinPresets = []Preset{
	{
		ID:          "balanced",
		Name:        "Balanced",
		Description: "Even-handed weighting that suits most topics",
		Icon:        "⚖️",
		Weights:     Weights{Relevance: 50, Quality: 25, Freshness: 20, External: 5},
		Thresholds:  Thresholds{ExpandThreshold: 85, MinWordCount: 100, MaxDaysForFresh: 30},
		QualityFactors: QualityFactors{
			PreferredDomains:     []string{"reuters.com", "bbc.com", "elpais.com", "expansion.com", ".edu", ".gov"},
			KeywordBonus:         []string{"datos", "estadística", "estudio", "investigación", "análisis"},
			MinimumContentLength: 100,
		},
	},
	{
		ID:          "quality-focused",
		Name:        "Quality Focus",
		Description: "Favors content quality over every other factor",
		Icon:        "🏆",
		Weights:     Weights{Relevance: 30, Quality: 50, Freshness: 15, External: 5},
		Thresholds:  Thresholds{ExpandThreshold: 90, MinWordCount: 200, MaxDaysForFresh: 90},
		QualityFactors: QualityFactors{
			PreferredDomains:     []string{"nature.com", "science.org", "reuters.com", "bbc.com", ".edu", ".gov", "arxiv.org"},
			KeywordBonus:         []string{"investigación", "estudio", "datos", "análisis", "evidencia", "método"},
			MinimumContentLength: 200,
		},
	},
	{
		ID:          "freshness-focused",
		Name:        "Freshness Focus",
		Description: "Favors recent and trending content",
		Icon:        "🚀",
		Weights:     Weights{Relevance: 40, Quality: 20, Freshness: 35, External: 5},
		Thresholds:  Thresholds{ExpandThreshold: 80, MinWordCount: 50, MaxDaysForFresh: 7},
		QualityFactors: QualityFactors{
			PreferredDomains:     []string{"twitter.com", "reddit.com", "medium.com", "linkedin.com"},
			KeywordBonus:         []string{"trending", "viral", "breaking", "último", "nuevo", "reciente"},
			MinimumContentLength: 50,
		},
	},
	{
		ID:          "relevance-focused",
		Name:        "Relevance Focus",
		Description: "Maximizes topical relevance",
		Icon:        "🎯",
		Weights:     Weights{Relevance: 70, Quality: 15, Freshness: 10, External: 5},
		Thresholds:  Thresholds{ExpandThreshold: 85, MinWordCount: 75, MaxDaysForFresh: 60},
		QualityFactors: QualityFactors{
			PreferredDomains:     []string{"wikipedia.org", "britannica.com", ".edu"},
			KeywordBonus:         []string{"definición", "concepto", "explicación", "guía", "tutorial"},
			MinimumContentLength: 75,
		},
	},
}

// Presets returns copies of the built-in presets in display order
func Presets() []Preset {
	out := make([]Preset, len(builtinPresets))
	for i, p := range builtinPresets {
		p.QualityFactors = p.QualityFactors.clone()
		out[i] = p
	}
	return out
}

// PresetByID looks up a built-in preset
func PresetByID(id string) (Preset, error) {
	for _, p := range builtinPresets {
		if p.ID == id {
			p.QualityFactors = p.QualityFactors.clone()
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
}

// DefaultRule returns the protected default rule built from the balanced preset
func DefaultRule(now time.Time) Rule {
	balanced := builtinPresets[0]
	return Rule{
		ID: DefaultRuleID,
		RuleBody: RuleBody{
			Name:           "Default",
			Description:    "Standard system configuration",
			Weights:        balanced.Weights,
			Thresholds:     balanced.Thresholds,
			QualityFactors: balanced.QualityFactors.clone(),
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
