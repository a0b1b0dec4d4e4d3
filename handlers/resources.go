// ABOUTME: MCP resource handlers exposing stored contacts
// ABOUTME: Serves cx://contacts and cx://contacts/{id} as read-only JSON
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/insights"
	"github.com/harperreed/cxboard/timefilter"
)

const resourceScheme = "cx://"

type ResourceHandlers struct {
	store db.Store
}

func NewResourceHandlers(store db.Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch {
	case parts[0] == "contacts" && len(parts) == 1:
		contacts, err := h.store.ListContacts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		return jsonResource(uri, contacts)

	case parts[0] == "contacts" && len(parts) == 2 && parts[1] != "":
		view, err := insights.Load(ctx, h.store, parts[1], timefilter.Window{})
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return nil, fmt.Errorf("failed to fetch contact: %w", err)
		}
		return jsonResource(uri, view)

	case parts[0] == "stats" && len(parts) == 1:
		counts, err := h.store.Counts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
		return jsonResource(uri, counts)

	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
