// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool for inspecting contact linkage
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/viz"
)

type VizHandlers struct {
	generator *viz.GraphGenerator
}

func NewVizHandlers(store viz.Reader) *VizHandlers {
	return &VizHandlers{generator: viz.NewGraphGenerator(store)}
}

type GenerateGraphInput struct {
	ContactID string `json:"contact_id,omitempty" jsonschema:"Contact to graph; omit for every contact grouped by directory"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	var (
		dot       []byte
		err       error
		graphType = "complete"
	)
	if input.ContactID != "" {
		graphType = "contact"
		dot, err = h.generator.GenerateContactGraph(ctx, input.ContactID, graphviz.XDOT)
	} else {
		dot, err = h.generator.GenerateCompleteGraph(ctx, graphviz.XDOT)
	}
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, GenerateGraphOutput{}, fmt.Errorf("contact not found: %s", input.ContactID)
		}
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	src := string(dot)
	return nil, GenerateGraphOutput{
		GraphType: graphType,
		DOTSource: src,
		NodeCount: strings.Count(src, "label="),
		EdgeCount: strings.Count(src, "->"),
	}, nil
}
