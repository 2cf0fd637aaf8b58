package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/onco-triage-server/internal/domain"
)

// RulesResourceURI is the read-only view of the decision table.
const RulesResourceURI = "triage://rules"

// RulesResource is the JSON body served at RulesResourceURI.
type RulesResource struct {
	Version  string              `json:"version"`
	Sections []domain.Section    `json:"sections"`
	Rules    []domain.TriageRule `json:"rules"`
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         RulesResourceURI,
		Name:        "triage_rules",
		Description: "Triage decision table with section, condition and disposition of every rule, in evaluation order.",
		MIMEType:    "application/json",
	}, s.readRulesResource)
	s.logger.WithField("resource_uri", RulesResourceURI).Debug("Registered MCP resource")
}

func (s *Server) readRulesResource(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	body, err := json.MarshalIndent(s.rulesResource(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      RulesResourceURI,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}

func (s *Server) rulesResource() RulesResource {
	rules := s.triage.Rules()

	var sections []domain.Section
	seen := make(map[domain.Section]bool)
	for _, r := range rules {
		if !seen[r.Section] {
			seen[r.Section] = true
			sections = append(sections, r.Section)
		}
	}

	return RulesResource{
		Version:  s.info.Version,
		Sections: sections,
		Rules:    rules,
	}
}
