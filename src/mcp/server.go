package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"hserr-agent/src/analysis"
	"hserr-agent/src/contracts"
	"hserr-agent/src/logger"
	"hserr-agent/src/pipeline"
	"hserr-agent/src/ranking"
	"hserr-agent/src/store"
)

// AnalyzeTimeout bounds how long analyze_crash_report waits for a result.
var AnalyzeTimeout = 2 * time.Minute

// DefaultListLimit is the number of reports list_reports returns by default.
const DefaultListLimit = 20

// Server is the MCP server for hserr-agent.
type Server struct {
	mcpServer *server.MCPServer
	pipeline  pipeline.Pipeline
	cache     *ReportCache
	logger    logger.Logger
}

// NewServer creates a new MCP server submitting reports through p.
func NewServer(p pipeline.Pipeline, cacheSize int, log logger.Logger) (*Server, error) {
	cache, err := NewReportCache(cacheSize, p.Store())
	if err != nil {
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	s := server.NewMCPServer(
		"hserr-agent",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		pipeline:  p,
		cache:     cache,
		logger:    log,
	}
	srv.registerTools()

	return srv, nil
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	analyzeTool := mcp.NewTool("analyze_crash_report",
		mcp.WithDescription("Analyze a JVM fatal error log (hs_err_pid<pid>.log) and return ranked diagnostics. All ERROR diagnostics, which explain the crash, are returned in full. Warnings and informational findings are summarized; use get_report with detailed=true to expand them."),
		mcp.WithString("content",
			mcp.Description("Full text of the crash report"),
		),
		mcp.WithString("path",
			mcp.Description("Path of a crash report readable by the ingest agent; used when content is empty"),
		),
		mcp.WithString("name",
			mcp.Description("Display name for the report (default: the file name)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max errors returned (default: 15)"),
		),
	)

	listTool := mcp.NewTool("list_reports",
		mcp.WithDescription("List analyzed crash reports, newest first. Use signature to find earlier occurrences of the same crash."),
		mcp.WithString("signature",
			mcp.Description("Only reports with this crash signature"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max reports (default: 20)"),
		),
		mcp.WithBoolean("by_priority",
			mcp.Description("Order by errors, then recurrence, then time"),
		),
	)

	getTool := mcp.NewTool("get_report",
		mcp.WithDescription("Get a previously analyzed report by id."),
		mcp.WithString("report_id",
			mcp.Required(),
			mcp.Description("Report ID from analyze_crash_report or list_reports"),
		),
		mcp.WithBoolean("detailed",
			mcp.Description("Return warnings and infos in full"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max errors returned (default: 15)"),
		),
	)

	explainTool := mcp.NewTool("explain_code",
		mcp.WithDescription("Describe a diagnostic code: its severity and message template. Without a code, lists every code."),
		mcp.WithString("code",
			mcp.Description("Diagnostic code, for example crash.signal"),
		),
	)

	s.mcpServer.AddTool(analyzeTool, s.handleAnalyze)
	s.mcpServer.AddTool(listTool, s.handleListReports)
	s.mcpServer.AddTool(getTool, s.handleGetReport)
	s.mcpServer.AddTool(explainTool, s.handleExplainCode)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleAnalyze submits the report through the pipeline and waits for
// its diagnosis.
func (s *Server) handleAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := request.GetString("content", "")
	path := request.GetString("path", "")
	if strings.TrimSpace(content) == "" && path == "" {
		return mcp.NewToolResultError("either content or path is required"), nil
	}

	req := contracts.CrashReportRequest{
		Source:  contracts.SourceInline,
		Name:    request.GetString("name", ""),
		Content: content,
	}
	if req.Content == "" {
		req.Source = contracts.SourcePath
		req.Location = path
	}

	report, err := s.analyze(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	s.cache.Put(*report)

	return jsonResult(ToManifest(*report, request.GetInt("limit", DefaultErrorLimit), false))
}

func (s *Server) analyze(ctx context.Context, req contracts.CrashReportRequest) (*contracts.DiagnosisReport, error) {
	ctx, cancel := context.WithTimeout(ctx, AnalyzeTimeout)
	defer cancel()

	requestID, err := s.pipeline.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[MCP] Submitted %s", requestID)
	return s.pipeline.Wait(ctx, requestID)
}

func (s *Server) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.Filter{
		Signature: request.GetString("signature", ""),
		Limit:     request.GetInt("limit", DefaultListLimit),
	}

	reports, err := s.pipeline.Store().ListReports(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}
	if request.GetBool("by_priority", false) {
		ranking.SortReports(reports)
	}

	listing := make([]ReportListing, len(reports))
	for i, r := range reports {
		listing[i] = ToListing(r)
	}
	return jsonResult(listing)
}

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reportID := request.GetString("report_id", "")
	if reportID == "" {
		return mcp.NewToolResultError("report_id parameter is required"), nil
	}

	report, err := s.cache.Get(ctx, reportID)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("report not found: %s", reportID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load report: %v", err)), nil
	}

	limit := request.GetInt("limit", DefaultErrorLimit)
	return jsonResult(ToManifest(report, limit, request.GetBool("detailed", false)))
}

func (s *Server) handleExplainCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("code", "")
	if code == "" {
		catalog := analysis.Catalog()
		out := make([]CodeExplanation, len(catalog))
		for i, e := range catalog {
			out[i] = explain(e)
		}
		return jsonResult(out)
	}

	e, ok := analysis.Lookup(analysis.Code(code))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown code: %s", code)), nil
	}
	return jsonResult(explain(e))
}

func explain(e analysis.Entry) CodeExplanation {
	return CodeExplanation{
		Code:     string(e.Code),
		Severity: string(e.Severity),
		Template: e.Template,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
