// Package mcp exposes triage evaluation to Model Context Protocol clients.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/feedback"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/service"
)

// ServerInfo contains MCP server metadata
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Options carries the server's collaborators. Feedback may be nil, in which
// case the feedback tool is not registered.
type Options struct {
	Info      ServerInfo
	Triage    *service.TriageService
	Parser    *intake.Parser
	Feedback  feedback.Store
	ExportDir string
	Logger    *logrus.Logger
}

// Server represents the triage MCP server
type Server struct {
	info      ServerInfo
	mcpServer *mcp.Server
	triage    *service.TriageService
	parser    *intake.Parser
	feedback  feedback.Store
	exportDir string
	logger    *logrus.Logger
	tools     []string
}

// NewServer creates a new MCP server instance with every tool registered
func NewServer(opts Options) (*Server, error) {
	if opts.Triage == nil || opts.Parser == nil {
		return nil, fmt.Errorf("triage service and parser are required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	if opts.Info.Name == "" {
		opts.Info = ServerInfo{Name: "onco-triage-mcp-server", Version: "v0.1.0"}
	}

	s := &Server{
		info:      opts.Info,
		triage:    opts.Triage,
		parser:    opts.Parser,
		feedback:  opts.Feedback,
		exportDir: opts.ExportDir,
		logger:    opts.Logger,
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    opts.Info.Name,
		Version: opts.Info.Version,
	}, nil)

	s.registerTools()
	s.registerResources()

	s.logger.WithField("tool_count", len(s.tools)).Info("Successfully registered all tools")
	return s, nil
}

// registerTools registers the triage tools with the MCP SDK
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolEvaluateTriage,
		Description: "Evaluate a completed oncology symptom questionnaire and return the triage disposition, observations and answer summary.",
	}, s.handleEvaluateTriage)
	s.tools = append(s.tools, ToolEvaluateTriage)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExportTriageReport,
		Description: "Evaluate a questionnaire and render the result as a json, csv or text report, optionally saving it to the export directory.",
	}, s.handleExportTriageReport)
	s.tools = append(s.tools, ToolExportTriageReport)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListTriageRules,
		Description: "List the triage decision table in evaluation order, optionally filtered by questionnaire section.",
	}, s.handleListTriageRules)
	s.tools = append(s.tools, ToolListTriageRules)

	if s.feedback != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        ToolSubmitTriageFeedback,
			Description: "Record a clinician's final disposition for a triage report so suggestions can be audited.",
		}, s.handleSubmitTriageFeedback)
		s.tools = append(s.tools, ToolSubmitTriageFeedback)
	}

	for _, name := range s.tools {
		s.logger.WithField("tool_name", name).Debug("Registered MCP tool")
	}
}

// Tools lists the registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

// Start serves the protocol over stdio until ctx is cancelled or the client
// disconnects.
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithFields(logrus.Fields{
		"name":    s.info.Name,
		"version": s.info.Version,
	}).Info("Starting triage MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.feedback != nil {
		if err := s.feedback.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
			return err
		}
	}
	return nil
}
