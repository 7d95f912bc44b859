package api

import (
	"log/slog"

	"github.com/hazyhaar/wikipron/pkg/kit"
	"github.com/hazyhaar/wikipron/pkg/lexicon"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCPTools registers the wikipron MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, reg *lexicon.Registry, logger *slog.Logger) {
	eps := newEndpoints(reg, logger)

	kit.RegisterMCPTool(srv, mcp.NewTool("expand_variants",
		mcp.WithDescription("Expand a pattern with parenthesized optional segments, e.g. \"hotda(w)g\", into every literal variant."),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Pattern to expand; each (...) group is optional")),
	), eps.expand, kit.DecodeInto[expandReq]())

	kit.RegisterMCPTool(srv, mcp.NewTool("lookup_word",
		mcp.WithDescription("Look up the IPA pronunciations of a word in the loaded lexicons."),
		mcp.WithString("word", mcp.Required(), mcp.Description("The word to look up")),
		mcp.WithArray("languages",
			mcp.Description("Restrict to these languages, by name or code (e.g. English, fr)"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("lexicons",
			mcp.Description("Restrict to these lexicon IDs"),
			mcp.WithStringItems(),
		),
	), eps.lookup, kit.DecodeInto[lookupReq]())

	kit.RegisterMCPTool(srv, mcp.NewTool("list_lexicons",
		mcp.WithDescription("List the loaded lexicons with language, source, license and entry counts."),
	), eps.listLexicon, func(mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{}, nil
	})
}

// NewMCPServer returns an MCP server with every wikipron tool registered.
func NewMCPServer(version string, reg *lexicon.Registry, logger *slog.Logger) *server.MCPServer {
	srv := server.NewMCPServer("wikipron", version, server.WithToolCapabilities(false))
	RegisterMCPTools(srv, reg, logger)
	return srv
}
