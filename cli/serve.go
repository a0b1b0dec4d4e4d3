// ABOUTME: serve subcommand running the HTTP API until interrupted
// ABOUTME: Wires config, store, importer and the gin server together
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/web"
)

func (a *app) newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.withStore(cmd, func(_ context.Context, store db.Store) error {
				srv := web.NewServer(store, a.newImporter(store), web.Options{
					AllowedOrigins: a.cfg.CORS.AllowedOrigins,
					Logger:         a.log,
				})
				a.log.WithField("backend", a.cfg.Storage.Backend).Info("cxboard ready")
				return srv.Start(ctx, a.cfg.Listen)
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}
