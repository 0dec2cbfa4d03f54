package cmd

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/populate/internal/populate"
	"github.com/agentic-research/populate/internal/query"
	"github.com/agentic-research/populate/internal/registry"
	"github.com/agentic-research/populate/internal/traverse"
)

func newServeCmd(o *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the traverse and reach operations as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withCatalog(cmd.Context(), func(_ context.Context, _ registry.Catalog, p *populate.Populator) error {
				o.log.Info("serving MCP tools on stdio")
				return server.ServeStdio(newMCPServer(p))
			})
		},
	}
}

func newMCPServer(p *populate.Populator) *server.MCPServer {
	s := server.NewMCPServer("populate", "0.1.0", server.WithToolCapabilities(false))
	h := &tools{p: p}

	s.AddTool(mcp.NewTool("traverse_populate",
		mcp.WithDescription("Rewrite a populate fragment against a content type, dropping keys the schemas cannot resolve"),
		mcp.WithString("root", mcp.Required(), mcp.Description("Content type UID the fragment applies to")),
		mcp.WithString("populate", mcp.Required(), mcp.Description("The populate fragment as JSON")),
		mcp.WithString("allow", mcp.Description("Comma-separated content type UIDs the fragment may reach")),
	), h.traverse)

	s.AddTool(mcp.NewTool("reach_populate",
		mcp.WithDescription("List the content types a populate fragment can pull in"),
		mcp.WithString("root", mcp.Required(), mcp.Description("Content type UID the fragment applies to")),
		mcp.WithString("populate", mcp.Required(), mcp.Description("The populate fragment as JSON")),
	), h.reach)

	return s
}

type tools struct {
	p *populate.Populator
}

func (h *tools) args(request mcp.CallToolRequest) (string, query.Node, error) {
	root, err := request.RequireString("root")
	if err != nil {
		return "", nil, err
	}
	raw, err := request.RequireString("populate")
	if err != nil {
		return "", nil, err
	}
	n, err := query.Parse([]byte(raw))
	if err != nil {
		return "", nil, err
	}
	return root, n, nil
}

func (h *tools) traverse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, n, err := h.args(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var visitor traverse.Visitor
	if allow := request.GetString("allow", ""); allow != "" {
		visitor = h.p.Restrict(populate.AllowList(strings.Split(allow, ",")...))
	}

	out, err := h.p.TraverseUID(ctx, visitor, root, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := query.Encode(out)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (h *tools) reach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, n, err := h.args(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	uids, err := h.p.Reach(ctx, root, n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(uids, "\n")), nil
}
