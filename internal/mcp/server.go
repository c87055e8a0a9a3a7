// Package mcp implements a Model Context Protocol server exposing
// module usage scans as tools over stdio transport.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"musage/internal/config"
)

const (
	// serverName is the MCP server implementation name.
	serverName = "musage"

	// toolCount is the expected number of registered tools.
	toolCount = 2
)

// ServerDeps holds injectable dependencies for the MCP server.
// Zero-value fields use production defaults.
type ServerDeps struct {
	// Logger is an optional structured logger. Nil uses slog default.
	Logger *slog.Logger

	// Config supplies scan defaults (extensions, excludes, boundary).
	// Nil uses the built-in defaults.
	Config *config.Config

	// Version is reported by the musage_version tool.
	Version string
}

// Server wraps the MCP SDK server with the usage scan tools.
type Server struct {
	inner   *mcpsdk.Server
	cfg     *config.Config
	version string
	mu      sync.RWMutex
	tools   []string
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	opts := &mcpsdk.ServerOptions{}
	if deps.Logger != nil {
		opts.Logger = deps.Logger
	}

	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: version,
		},
		opts,
	)

	srv := &Server{
		inner:   inner,
		cfg:     cfg,
		version: version,
		tools:   make([]string, 0, toolCount),
	}

	srv.registerTools()

	return srv
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)

	return names
}

// Run starts the MCP server on stdio transport. It blocks until the
// context is canceled or the connection closes.
func (s *Server) Run(ctx context.Context) error {
	err := s.inner.Run(ctx, &mcpsdk.StdioTransport{})
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// RunWithTransport starts the MCP server on the given transport. It
// blocks until the context is canceled or the connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	err := s.inner.Run(ctx, transport)
	if err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

func (s *Server) registerTools() {
	s.registerScanTool()
	s.registerVersionTool()
}

func (s *Server) registerScanTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameScan,
		Description: scanToolDescription,
	}, s.handleScan)

	s.trackTool(ToolNameScan)
}

func (s *Server) registerVersionTool() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameVersion,
		Description: versionToolDescription,
	}, s.handleVersion)

	s.trackTool(ToolNameVersion)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}

// Tool description constants.
const (
	scanToolDescription = "Count how often each name imported from a target module " +
		"is called across a source tree. Accepts an absolute directory path and a " +
		"module prefix; returns ranked qualified names with call counts."

	versionToolDescription = "Report the musage server version and the file " +
		"extensions its parsers accept."
)
