// Package mcp implements the MCP server exposing BSL analysis, formatting
// and syntax checking as tools.
package mcp

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/semaphore"

	"bsl-lint/src/config"
	"bsl-lint/src/logger"
	"bsl-lint/src/report"
	"bsl-lint/src/runner"
)

// Server is the MCP server for bsl-lint.
type Server struct {
	mcpServer *server.MCPServer
	runner    *runner.Runner
	cfg       *config.Config
	log       logger.Logger

	// bounds concurrent child processes across tool calls; mcp-go runs
	// handlers per-request, this is the worker-pool limit
	sem *semaphore.Weighted
}

// NewServer creates a new MCP server around an operation runner.
func NewServer(cfg *config.Config, log logger.Logger) *Server {
	s := server.NewMCPServer(
		"bsl-lint",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		runner:    runner.New(cfg, log),
		cfg:       cfg,
		log:       log,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrentRuns)),
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool("bsl_analyze",
		mcp.WithDescription("Run BSL Language Server analysis on a source directory or file. Returns diagnostics grouped by severity."),
		mcp.WithString("srcDir",
			mcp.Required(),
			mcp.Description("Path to directory or file with .bsl/.os files"),
		),
	)

	formatTool := mcp.NewTool("bsl_format",
		mcp.WithDescription("Format BSL files in a source directory or file with the BSL Language Server."),
		mcp.WithString("srcDir",
			mcp.Required(),
			mcp.Description("Path to directory or file with .bsl/.os files"),
		),
	)

	checkSyntaxTool := mcp.NewTool("bsl_check_syntax",
		mcp.WithDescription("Run a vrunner syntax check against a 1C infobase and report errors and warnings."),
		mcp.WithString("ibConnection",
			mcp.Description("Infobase connection string, e.g. /F./build/ib. Falls back to VRUNNER_IB_CONNECTION."),
		),
		mcp.WithString("dbUser",
			mcp.Description("Infobase user name"),
		),
		mcp.WithString("dbPwd",
			mcp.Description("Infobase user password"),
		),
		mcp.WithBoolean("groupByMetadata",
			mcp.Description("Group results by metadata object (default: true)"),
		),
		mcp.WithString("junitPath",
			mcp.Description("Path for the JUnit XML report; parsed back into diagnostics when written"),
		),
	)

	s.mcpServer.AddTool(analyzeTool, s.handleAnalyze)
	s.mcpServer.AddTool(formatTool, s.handleFormat)
	s.mcpServer.AddTool(checkSyntaxTool, s.handleCheckSyntax)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleAnalyze handles the bsl_analyze tool call.
func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	srcDir := request.GetString("srcDir", "")
	if srcDir == "" {
		return mcp.NewToolResultError("srcDir parameter is required"), nil
	}
	srcDir = resolveSourceDir(srcDir)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return mcp.NewToolResultError("analysis cancelled while waiting for a free worker"), nil
	}
	defer s.sem.Release(1)

	result := s.runner.Analyze(ctx, srcDir, "", 0)
	s.log.Info("analysis completed: success=%v, files=%d", result.Success, result.FilesProcessed)

	return mcp.NewToolResultText(report.RenderAnalyze(result)), nil
}

// handleFormat handles the bsl_format tool call.
func (s *Server) handleFormat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	srcDir := request.GetString("srcDir", "")
	if srcDir == "" {
		return mcp.NewToolResultError("srcDir parameter is required"), nil
	}
	srcDir = resolveSourceDir(srcDir)

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return mcp.NewToolResultError("formatting cancelled while waiting for a free worker"), nil
	}
	defer s.sem.Release(1)

	result := s.runner.Format(ctx, srcDir)
	s.log.Info("formatting completed: success=%v, files=%d", result.Success, result.FilesProcessed)

	return mcp.NewToolResultText(report.RenderFormat(result)), nil
}

// handleCheckSyntax handles the bsl_check_syntax tool call.
func (s *Server) handleCheckSyntax(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := runner.SyntaxCheckOptions{
		IBConnection:    request.GetString("ibConnection", ""),
		DBUser:          request.GetString("dbUser", ""),
		DBPassword:      request.GetString("dbPwd", ""),
		GroupByMetadata: request.GetBool("groupByMetadata", true),
		JUnitPath:       request.GetString("junitPath", ""),
	}
	if opts.IBConnection == "" && s.cfg.IBConnection == "" {
		return mcp.NewToolResultError("ibConnection parameter is required (or set VRUNNER_IB_CONNECTION)"), nil
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return mcp.NewToolResultError("syntax check cancelled while waiting for a free worker"), nil
	}
	defer s.sem.Release(1)

	result := s.runner.CheckSyntax(ctx, opts)
	s.log.Info("syntax check completed: success=%v", result.Success)

	return mcp.NewToolResultText(report.RenderSyntaxCheck(result)), nil
}

// resolveSourceDir substitutes the parent directory when the given path is
// a file: the analyzer places its report relative to the directory it
// works in, so a directory makes report discovery reliable.
func resolveSourceDir(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path)
	}
	return path
}
