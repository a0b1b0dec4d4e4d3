// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the stats dashboard and linkage graph generation
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-graphviz"
	"github.com/spf13/cobra"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/viz"
)

func (a *app) newGraphCmd() *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "graph [contact-id]",
		Short: "Render contact linkage as DOT or SVG; every contact when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gvFormat := graphviz.XDOT
			switch format {
			case "dot":
			case "svg":
				gvFormat = graphviz.SVG
			default:
				return fmt.Errorf("unknown graph format %q (valid: dot, svg)", format)
			}

			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				generator := viz.NewGraphGenerator(store)
				var out []byte
				var err error
				if len(args) == 1 {
					out, err = generator.GenerateContactGraph(ctx, args[0], gvFormat)
				} else {
					out, err = generator.GenerateCompleteGraph(ctx, gvFormat)
				}
				if err != nil {
					if len(args) == 1 && errors.Is(err, db.ErrNotFound) {
						return fmt.Errorf("contact %s not found", args[0])
					}
					return err
				}

				if output != "" {
					return os.WriteFile(output, out, 0644)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "dot", "output format: dot or svg")
	return cmd
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard: totals, directories, survey status and sentiment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd, func(ctx context.Context, store db.Store) error {
				stats, err := viz.GenerateDashboardStats(ctx, store)
				if err != nil {
					return fmt.Errorf("failed to generate dashboard stats: %w", err)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
				return err
			})
		},
	}
}
