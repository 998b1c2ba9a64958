package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers all facet analysis tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all facet tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "facet",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds all facet analysis tools to the server.
func (s *Server) registerTools() {
	// Decomposition tree aggregation
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "build_tree",
		Description: describeBuildTree(),
	}, handleBuildTree)

	// Headline delivery KPIs
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "kpi_summary",
		Description: describeKPISummary(),
	}, handleKPISummary)

	// Per-row schedule classification preview
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_rows",
		Description: describeClassifyRows(),
	}, handleClassifyRows)

	// Column profile
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_columns",
		Description: describeListColumns(),
	}, handleListColumns)
}
