package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/pipeline"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

func (s *Server) handleResearchTopic(ctx context.Context, _ *mcp.CallToolRequest, in ResearchTopicInput) (*mcp.CallToolResult, ResultOutput, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return nil, ResultOutput{}, errors.New("topic is required")
	}

	rule, err := s.ruleOverride(in.RuleID)
	if err != nil {
		return nil, ResultOutput{}, err
	}

	result, err := s.researcher.Run(ctx, topic, pipeline.RunOptions{
		NumResults:     in.NumResults,
		DaysBack:       in.DaysBack,
		IncludeDomains: in.IncludeDomains,
		ExcludeDomains: in.ExcludeDomains,
		Rule:           rule,
	})
	if errors.Is(err, pipeline.ErrNoSearch) {
		return nil, ResultOutput{}, errors.New("search is not configured on this server; use categorize_records with existing results")
	}
	if err != nil {
		s.log.Error("research_topic failed", logger.String("topic", topic), logger.Err(err))
		return nil, ResultOutput{}, errors.New(research.UserMessage(err))
	}

	return nil, toResultOutput(result), nil
}

func (s *Server) handleCategorize(ctx context.Context, _ *mcp.CallToolRequest, in CategorizeInput) (*mcp.CallToolResult, ResultOutput, error) {
	rule, err := s.ruleOverride(in.RuleID)
	if err != nil {
		return nil, ResultOutput{}, err
	}

	records := make([]research.CandidateRecord, len(in.Records))
	for i, r := range in.Records {
		records[i] = r.candidate()
	}

	result := s.researcher.Categorize(ctx, in.Topic, records, rule)
	return nil, toResultOutput(result), nil
}

func (s *Server) handleListRules(_ context.Context, _ *mcp.CallToolRequest, _ Empty) (*mcp.CallToolResult, RulesOutput, error) {
	list := s.rules.ListRules()
	out := RulesOutput{Rules: make([]RuleOutput, len(list))}
	for i, r := range list {
		out.Rules[i] = toRuleOutput(r)
		if r.IsActive {
			out.ActiveID = r.ID
		}
	}
	return nil, out, nil
}

func (s *Server) handleActivateRule(ctx context.Context, _ *mcp.CallToolRequest, in RuleIDInput) (*mcp.CallToolResult, RuleOutput, error) {
	rule, err := s.rules.ActivateRule(ctx, in.ID)
	if err != nil {
		return nil, RuleOutput{}, err
	}
	s.log.Info("rule activated", logger.String("id", rule.ID))
	return nil, toRuleOutput(rule), nil
}

func (s *Server) handleApplyPreset(ctx context.Context, _ *mcp.CallToolRequest, in PresetInput) (*mcp.CallToolResult, RuleOutput, error) {
	rule, err := s.rules.ApplyPreset(ctx, in.PresetID)
	if err != nil {
		return nil, RuleOutput{}, err
	}
	s.log.Info("preset applied", logger.String("preset", in.PresetID), logger.String("id", rule.ID))
	return nil, toRuleOutput(rule), nil
}

func (s *Server) handleListPresets(_ context.Context, _ *mcp.CallToolRequest, _ Empty) (*mcp.CallToolResult, PresetsOutput, error) {
	presets := rules.Presets()
	out := PresetsOutput{Presets: make([]PresetOutput, len(presets))}
	for i, p := range presets {
		out.Presets[i] = PresetOutput{
			ID:              p.ID,
			Name:            p.Name,
			Description:     p.Description,
			Icon:            p.Icon,
			ExpandThreshold: p.Thresholds.ExpandThreshold,
		}
	}
	return nil, out, nil
}

// ruleOverride resolves an optional rule id; empty means the active rule
func (s *Server) ruleOverride(id string) (*rules.Rule, error) {
	if id == "" {
		return nil, nil
	}
	r, err := s.rules.GetRule(id)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
