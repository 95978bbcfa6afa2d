package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/researchdesk/internal/logger"
	"github.com/vijay-prabhu/researchdesk/internal/mcp"
	"github.com/vijay-prabhu/researchdesk/internal/pipeline"
)

var (
	mcpHTTP     bool
	mcpHTTPAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server (stdio or HTTP transport)",
	Long: `Start the MCP (Model Context Protocol) server.

By default the server speaks over stdio, which lets AI assistants like
Claude Desktop research topics and manage rules:

{
  "mcpServers": {
    "researchdesk": {
      "command": "/path/to/researchdesk",
      "args": ["mcp"]
    }
  }
}

With --http the server listens for streamable HTTP clients and also
serves Prometheus metrics on /metrics.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpHTTP, "http", false, "Serve over HTTP instead of stdio")
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "addr", "", "HTTP listen address (default from config)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	useHTTP := mcpHTTP || a.cfg.MCP.Transport == "http"

	var opts []pipeline.Option
	reg := prometheus.NewRegistry()
	if useHTTP {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, pipeline.WithMetrics(pipeline.NewMetrics(reg)))
	}

	// Without search credentials the server still offers categorization
	// and rule management.
	p, err := a.pipeline(ctx, true, opts...)
	if err != nil {
		a.log.Warn("search unavailable, research_topic disabled", logger.Err(err))
		if p, err = a.pipeline(ctx, false, opts...); err != nil {
			return err
		}
	}

	server, err := mcp.New(p, a.store, a.log)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if !useHTTP {
		return ignoreCanceled(server.Run(ctx))
	}

	addr := a.cfg.MCP.HTTPAddr
	if mcpHTTPAddr != "" {
		addr = mcpHTTPAddr
	}
	fmt.Fprintf(os.Stderr, "MCP server listening on http://%s (metrics on /metrics)\n", addr)

	return server.RunHTTP(ctx, addr, map[string]http.Handler{
		"/metrics": promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
