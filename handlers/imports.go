// ABOUTME: Import MCP tool handler
// ABOUTME: Implements import_file, running a CSV or JSON file through the importer
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/cxboard/importer"
)

type ImportHandlers struct {
	importer *importer.Importer
}

func NewImportHandlers(imp *importer.Importer) *ImportHandlers {
	return &ImportHandlers{importer: imp}
}

type ImportFileInput struct {
	Path string `json:"path" jsonschema:"Path to a .csv or .json export on the server's filesystem (required)"`
}

type ImportFileOutput struct {
	RunID      string   `json:"run_id"`
	Message    string   `json:"message"`
	Format     string   `json:"format"`
	Contacts   int      `json:"contacts"`
	Activities int      `json:"activities"`
	Surveys    int      `json:"surveys"`
	Records    int      `json:"records"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
}

func (h *ImportHandlers) ImportFile(ctx context.Context, _ *mcp.CallToolRequest, input ImportFileInput) (*mcp.CallToolResult, ImportFileOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, ImportFileOutput{}, fmt.Errorf("path is required")
	}

	report, err := h.importer.ImportFile(ctx, path)
	if err != nil {
		return nil, ImportFileOutput{}, fmt.Errorf("import failed: %w", err)
	}

	return nil, ImportFileOutput{
		RunID:      report.RunID,
		Message:    report.Message,
		Format:     report.Format,
		Contacts:   report.Imported.Contacts,
		Activities: report.Imported.Activities,
		Surveys:    report.Imported.Surveys,
		Records:    report.Records,
		Skipped:    report.Skipped,
		Errors:     issueStrings(report.Errors),
		Warnings:   issueStrings(report.Warnings),
	}, nil
}

func issueStrings(issues []importer.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.String())
	}
	return out
}
