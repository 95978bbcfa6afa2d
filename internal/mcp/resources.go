package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

const uriScheme = "researchdesk://"

// Resource URIs
const (
	ActiveRuleURI = uriScheme + "rules/active"
	PresetsURI    = uriScheme + "presets"
)

// registerResources registers all resource handlers with the MCP server
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         ActiveRuleURI,
		Name:        "active-rule",
		Description: "The rule currently used to categorize research results",
		MIMEType:    "application/json",
	}, s.handleActiveRuleResource)

	s.server.AddResource(&mcp.Resource{
		URI:         PresetsURI,
		Name:        "presets",
		Description: "Built-in rule presets and their weights",
		MIMEType:    "text/plain",
	}, s.handlePresetsResource)
}

func (s *Server) handleActiveRuleResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(toRuleOutput(s.rules.GetActiveRule()), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling active rule: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handlePresetsResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     presetsText(rules.Presets()),
		}},
	}, nil
}

func presetsText(presets []rules.Preset) string {
	var b strings.Builder
	b.WriteString("Rule presets\n")
	b.WriteString(strings.Repeat("-", 30))
	b.WriteString("\n")
	for _, p := range presets {
		w := p.Weights
		fmt.Fprintf(&b, "%s %s (%s)\n", p.Icon, p.Name, p.ID)
		fmt.Fprintf(&b, "  %s\n", p.Description)
		fmt.Fprintf(&b, "  weights relevance=%g quality=%g freshness=%g search=%g, expand at %g\n",
			w.Relevance, w.Quality, w.Freshness, w.External, p.Thresholds.ExpandThreshold)
	}
	return b.String()
}
