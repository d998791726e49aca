package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/voltlint/voltlint/internal/engine"
	"github.com/voltlint/voltlint/internal/rules"
	"github.com/voltlint/voltlint/internal/store"
	"github.com/voltlint/voltlint/internal/validation"
)

// VoltlintServerDeps holds the dependencies for creating a VoltlintServer.
type VoltlintServerDeps struct {
	Evaluator *engine.Evaluator
	Registry  *rules.Registry
	Validator *validation.DiagramValidator
	Store     store.Store
	Logger    *slog.Logger
}

// VoltlintServer wraps an MCP server with compliance tool handlers.
type VoltlintServer struct {
	evaluator *engine.Evaluator
	registry  *rules.Registry
	validator *validation.DiagramValidator
	store     store.Store
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewVoltlintServer creates a new VoltlintServer with all 4 tools registered.
func NewVoltlintServer(deps VoltlintServerDeps) *VoltlintServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &VoltlintServer{
		evaluator: deps.Evaluator,
		registry:  deps.Registry,
		validator: deps.Validator,
		store:     deps.Store,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"voltlint",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Voltlint is an electrical code compliance engine for single-line diagrams. Use voltlint.solve to size a conductor for a circuit, voltlint.evaluate to run the full rule base over a diagram document, voltlint.rules to list the rule base, and voltlint.reports to query past evaluation reports."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *VoltlintServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *VoltlintServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 4 registered MCP tools as ServerTool entries.
func (s *VoltlintServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: solveTool(), Handler: s.handleSolve},
		{Tool: evaluateTool(), Handler: s.handleEvaluate},
		{Tool: rulesTool(), Handler: s.handleRules},
		{Tool: reportsTool(), Handler: s.handleReports},
	}
}

// --- Tool definitions ---

func solveTool() mcp.Tool {
	return mcp.NewTool("voltlint.solve",
		mcp.WithDescription("Find the smallest conductor gauge satisfying ampacity and voltage drop for a circuit"),
		mcp.WithNumber("load_amps", mcp.Required(), mcp.Description("Circuit load in amps")),
		mcp.WithNumber("voltage", mcp.Required(), mcp.Description("Circuit voltage")),
		mcp.WithNumber("length_ft", mcp.Description("One-way run length in feet (default: 0)")),
		mcp.WithString("material", mcp.Enum("copper", "aluminum"), mcp.Description("Conductor material (default: copper)")),
		mcp.WithNumber("temp_rating", mcp.Description("Insulation temperature rating in C: 60, 75, or 90 (default: 75)")),
		mcp.WithBoolean("continuous", mcp.Description("Continuous load (applies the 125% adjustment)")),
		mcp.WithBoolean("motor", mcp.Description("Motor load (applies the 125% adjustment)")),
		mcp.WithNumber("conductor_count", mcp.Description("Current-carrying conductors sharing the raceway (default: 3)")),
		mcp.WithNumber("ambient_temp_c", mcp.Description("Ambient temperature in C (default: 30)")),
		mcp.WithNumber("max_voltage_drop_pct", mcp.Description("Maximum allowed voltage drop percent (default: 3)")),
	)
}

func evaluateTool() mcp.Tool {
	return mcp.NewTool("voltlint.evaluate",
		mcp.WithDescription("Run the full compliance rule base over a single-line diagram document"),
		mcp.WithObject("document", mcp.Required(), mcp.Description("Diagram document: {id, name, components[], connections[]}")),
		mcp.WithObject("load", mcp.Description("Aggregate load context: {service_amps, total_load_amps, continuous_amps}")),
		mcp.WithBoolean("persist", mcp.Description("Append the result to the report store (default: false)")),
	)
}

func rulesTool() mcp.Tool {
	return mcp.NewTool("voltlint.rules",
		mcp.WithDescription("List the compliance rule base: id, title, code section, and category, sorted by id"),
		mcp.WithString("category", mcp.Enum("component", "connection", "system"), mcp.Description("Restrict to one rule category")),
	)
}

func reportsTool() mcp.Tool {
	return mcp.NewTool("voltlint.reports",
		mcp.WithDescription("Query past compliance reports"),
		mcp.WithString("diagram_id", mcp.Description("Restrict to one diagram")),
		mcp.WithBoolean("latest", mcp.Description("Return only the most recent report for the diagram (requires diagram_id)")),
		mcp.WithString("since", mcp.Description("RFC3339 timestamp; only reports created at or after this instant")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of reports to return (default: 50)")),
	)
}
