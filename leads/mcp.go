package leads

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/leadscout/kit"
)

// RegisterMCP registers the read-only lead tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	eps := s.newEndpoints()

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "leads_ranked",
		Description: "List prospects showing authentication pain, highest fit score first. Unscored leads are always included.",
		InputSchema: inputSchema(map[string]any{
			"min_score": map[string]any{"type": "integer", "description": "Minimum score 0-100 (default 0)"},
			"limit":     map[string]any{"type": "integer", "description": "Max leads returned (default all)"},
		}, nil),
	}, eps.ranked, kit.DecodeArgs[rankedRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "leads_get",
		Description: "Get one lead by its signal URL, with enrichment and score when present.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Signal URL"},
		}, []string{"url"}),
	}, eps.get, kit.DecodeArgs[getRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "leads_stats",
		Description: "Counts of signals, enrichments, scores, outreach and runs.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, eps.stats, kit.DecodeArgs[statsRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "leads_runs",
		Description: "Recent pipeline runs with their counts, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "description": "Max runs (default 20)"},
		}, nil),
	}, eps.runs, kit.DecodeArgs[runsRequest])

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name:        "leads_run",
		Description: "Get one pipeline run by id (run_<uuid>).",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Run id"},
		}, []string{"id"}),
	}, eps.run, kit.DecodeArgs[runRequest])
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	sch := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sch["required"] = required
	}
	return sch
}
