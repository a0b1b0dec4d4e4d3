// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server on stdio for agent integrations
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/handlers"
	"github.com/harperreed/cxboard/importer"
)

func (a *app) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				a.log.Info("starting cxboard MCP server")
				server := newMCPServer(store, a.newImporter(store), a.version)
				return server.Run(ctx, &mcp.StdioTransport{})
			})
		},
	}
}

// newMCPServer registers every tool and resource against store.
func newMCPServer(store db.Store, imp *importer.Importer, version string) *mcp.Server {
	contactHandlers := handlers.NewContactHandlers(store)
	importHandlers := handlers.NewImportHandlers(imp)
	vizHandlers := handlers.NewVizHandlers(store)
	resourceHandlers := handlers.NewResourceHandlers(store)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "cxboard",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contacts",
		Description: "List contacts newest first, with optional fuzzy search and directory filter",
	}, contactHandlers.ListContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contact",
		Description: "Fetch a contact with activities, surveys, notes, metrics and insights, optionally limited to a time range",
	}, contactHandlers.GetContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_note",
		Description: "Add a free-text note to a contact",
	}, contactHandlers.AddNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "import_file",
		Description: "Import a CSV or JSON export from the local filesystem and report what was created or skipped",
	}, importHandlers.ImportFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Render contact linkage as GraphViz DOT for one contact or all contacts",
	}, vizHandlers.GenerateGraph)

	server.AddResource(&mcp.Resource{
		URI:         "cx://contacts",
		Name:        "contacts",
		Description: "Every stored contact",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         "cx://stats",
		Name:        "stats",
		Description: "Record counts per entity",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "cx://contacts/{id}",
		Name:        "contact",
		Description: "One contact with its activities, surveys, notes and insights",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	return server
}
