// Package mcp exposes the readmission risk pipeline as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	litecfg "github.com/readmission-risk-server/internal/config"
	"github.com/readmission-risk-server/internal/domain"
	"github.com/readmission-risk-server/internal/model"
	"github.com/readmission-risk-server/internal/service"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "readmission-risk-mcp"

// LiteServer is a stdio MCP server that needs nothing but the model bundle.
type LiteServer struct {
	config    *litecfg.LiteConfig
	version   string
	mcpServer *mcp.Server
	bundle    *model.Bundle
	policy    domain.DecisionPolicy
	assessor  domain.Assessor
	logger    *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithBundle uses an already loaded bundle instead of reading the configured path.
func WithBundle(bundle *model.Bundle) LiteServerOption {
	return func(s *LiteServer) error {
		if bundle == nil {
			return fmt.Errorf("bundle must not be nil")
		}
		s.bundle = bundle
		return nil
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(version string) LiteServerOption {
	return func(s *LiteServer) error {
		s.version = version
		return nil
	}
}

// NewLiteServer loads the model bundle and registers the assessment tools. A bundle
// that cannot be loaded is returned as a *domain.BundleError before any tool exists.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config:  cfg,
		version: "dev",
		logger:  litecfg.NewLogger(cfg.LoggingConfig()),
		policy:  cfg.DecisionPolicy(),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.bundle == nil {
		bundle, err := model.Load(cfg.BundlePath)
		if err != nil {
			return nil, err
		}
		server.bundle = bundle
	}
	for _, w := range server.bundle.Warnings() {
		server.logger.WithField("bundle", cfg.BundlePath).Warn(w)
	}

	pipeline, err := service.NewPipeline(server.bundle, server.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	server.assessor = pipeline
	if cfg.CacheMaxItems > 0 {
		cached, err := service.NewCachedAssessor(pipeline, cfg.CacheMaxItems)
		if err != nil {
			return nil, err
		}
		server.assessor = cached
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: server.version,
	}, nil)
	server.registerTools()

	server.logger.WithFields(logrus.Fields{
		"bundle":     cfg.BundlePath,
		"classifier": server.bundle.Classifier().Kind(),
		"threshold":  server.policy.Threshold,
	}).Info("Lite server initialized successfully")
	return server, nil
}

// registerTools registers the tools with the MCP SDK.
func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: AssessToolName,
		Description: "Estimate the 30-day hospital readmission risk of a patient at discharge. " +
			"Returns the readmission probability, a HIGH_RISK or LOW_RISK label and a discharge recommendation.",
	}, s.handleAssess)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        DescribeToolName,
		Description: "Describe the loaded readmission model: feature columns, accepted categorical values and the decision threshold.",
	}, s.handleDescribe)

	s.logger.WithField("tool_count", 2).Debug("Registered MCP tools")
}

// MCPServer returns the underlying SDK server.
func (s *LiteServer) MCPServer() *mcp.Server {
	return s.mcpServer
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting readmission risk MCP server on stdio")

	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
