package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"musage/internal/analysis"
	"musage/internal/parser"
	"musage/internal/report"
	"musage/internal/scan"
)

// Tool name constants.
const (
	ToolNameScan    = "musage_scan"
	ToolNameVersion = "musage_version"
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyRoot indicates the root parameter is empty.
	ErrEmptyRoot = errors.New("root parameter is required and must not be empty")
	// ErrRootNotAbsolute indicates the root is not an absolute path.
	ErrRootNotAbsolute = errors.New("root must be an absolute path")
	// ErrEmptyModule indicates the module parameter is empty.
	ErrEmptyModule = errors.New("module parameter is required and must not be empty")
	// ErrInvalidBoundary indicates an unknown boundary mode.
	ErrInvalidBoundary = errors.New("boundary must be one of: prefix, dotted")
	// ErrNegativeLimit indicates a negative row limit.
	ErrNegativeLimit = errors.New("limit must not be negative")
)

// ScanInput is the input schema for the musage_scan tool.
type ScanInput struct {
	Boundary  string `json:"boundary,omitempty"   jsonschema:"module match mode: prefix (default) or dotted"`
	Limit     int    `json:"limit,omitempty"      jsonschema:"maximum number of ranked rows to return (default: all)"`
	Module    string `json:"module"               jsonschema:"target module prefix (e.g. acme.toolkit)"`
	Root      string `json:"root"                 jsonschema:"absolute path to the directory tree to scan"`
	SkipTests bool   `json:"skip_tests,omitempty" jsonschema:"exclude test files from the scan"`
}

// VersionInput is the input schema for the musage_version tool.
type VersionInput struct{}

// VersionInfo is the payload of the musage_version tool.
type VersionInfo struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Extensions []string `json:"extensions"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

// validateScanInput checks the scan input against the CLI contract.
func validateScanInput(input ScanInput) error {
	if input.Root == "" {
		return ErrEmptyRoot
	}
	if !filepath.IsAbs(input.Root) {
		return fmt.Errorf("%w: %s", ErrRootNotAbsolute, input.Root)
	}
	if input.Module == "" {
		return ErrEmptyModule
	}
	if input.Limit < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeLimit, input.Limit)
	}

	return nil
}

// handleScan processes musage_scan tool calls.
func (s *Server) handleScan(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ScanInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateScanInput(input)
	if err != nil {
		return errorResult(err)
	}

	if err := scan.ValidateRoot(input.Root); err != nil {
		return errorResult(err)
	}

	boundary := analysis.BoundaryMode(input.Boundary)
	if input.Boundary == "" {
		boundary = analysis.BoundaryMode(s.cfg.Scan.Boundary)
	}
	if !boundary.Valid() {
		return errorResult(fmt.Errorf("%w: got %q", ErrInvalidBoundary, input.Boundary))
	}

	p := parser.New()
	extensions := s.cfg.Extensions
	if len(extensions) == 0 {
		extensions = p.SupportedExtensions()
	}

	walker, err := scan.NewWalker(
		extensions,
		s.cfg.Exclude.Dirs,
		s.cfg.Exclude.Files,
		input.SkipTests || s.cfg.Scan.SkipTests,
	)
	if err != nil {
		return errorResult(fmt.Errorf("build walker: %w", err))
	}

	runner := &scan.Runner{
		Parser:   p,
		Resolver: analysis.NewResolver(input.Module, boundary),
		Walker:   walker,
		Workers:  s.cfg.Scan.Workers,
		Policy:   scan.PolicyLenient,
	}

	summary, err := runner.Run(ctx, input.Root)
	if err != nil {
		return errorResult(fmt.Errorf("scan: %w", err))
	}

	doc := report.NewDocument(summary)
	if input.Limit > 0 && len(doc.Rows) > input.Limit {
		doc.Rows = doc.Rows[:input.Limit]
	}

	return jsonResult(doc)
}

// handleVersion processes musage_version tool calls.
func (s *Server) handleVersion(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ VersionInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return jsonResult(VersionInfo{
		Name:       serverName,
		Version:    s.version,
		Extensions: parser.New().SupportedExtensions(),
	})
}
