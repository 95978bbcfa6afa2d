package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/pipeline"
	"github.com/vijay-prabhu/researchdesk/internal/research"
	"github.com/vijay-prabhu/researchdesk/internal/rules"
)

// Version is reported to MCP clients
const Version = "0.1.0"

var (
	ErrMissingResearcher = errors.New("researcher is required")
	ErrMissingRules      = errors.New("rule service is required")
)

// Researcher runs research and categorization
type Researcher interface {
	Run(ctx context.Context, topic string, opts pipeline.RunOptions) (*research.Result, error)
	Categorize(ctx context.Context, topic string, records []research.CandidateRecord, rule *rules.Rule) *research.Result
}

// RuleService exposes the rules store operations offered over MCP
type RuleService interface {
	ListRules() []rules.Rule
	GetActiveRule() rules.Rule
	GetRule(id string) (rules.Rule, error)
	ActivateRule(ctx context.Context, id string) (rules.Rule, error)
	ApplyPreset(ctx context.Context, presetID string) (rules.Rule, error)
}

// Server implements an MCP server over stdio or streamable HTTP
type Server struct {
	researcher Researcher
	rules      RuleService
	log        logger.Logger
	server     *mcp.Server
}

// New creates a new MCP server
func New(researcher Researcher, rs RuleService, log logger.Logger) (*Server, error) {
	if researcher == nil {
		return nil, ErrMissingResearcher
	}
	if rs == nil {
		return nil, ErrMissingRules
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		researcher: researcher,
		rules:      rs,
		log:        log,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "researchdesk",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until the context is cancelled or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves the MCP endpoint on addr. Extra handlers are mounted next
// to it, e.g. "/metrics". It returns nil after a graceful shutdown.
func (s *Server) RunHTTP(ctx context.Context, addr string, extra map[string]http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())
	for pattern, h := range extra {
		mux.Handle(pattern, h)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mcp http server listening", logger.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown mcp http server: %w", err)
		}
		return nil
	}
}
