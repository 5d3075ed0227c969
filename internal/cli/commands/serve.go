package commands

import (
	"github.com/leapstack-labs/dbschema/internal/metadata"
	"github.com/leapstack-labs/dbschema/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve table selection and schema generation over HTTP",
		Long: `Start a JSON API over the configured metadata.

Endpoints:
  GET  /api/modules
  GET  /api/tables?module=&pattern=
  GET  /api/tables/{name}
  GET  /api/tables/{name}/relations
  POST /api/schema
  GET  /api/events   (catalog reloads, with --watch)`,
		Example: `  dbschema serve --metadata ./metadata --port 8088 --watch
  curl -s localhost:8088/api/schema -d '{"tables":["SalesTable"],"expand_related":true}'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			cfg := server.Config{
				Port:            cmdCtx.Cfg.Server.Port,
				ShutdownTimeout: cmdCtx.Cfg.Server.ShutdownTimeout,
				Logger:          cmdCtx.Logger,
			}
			if watch && cmdCtx.Cfg.Metadata.Type == metadata.TypeYAML {
				cfg.WatchDir = cmdCtx.Cfg.Metadata.Directory
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return server.New(cmdCtx.Engine, cfg).Serve(ctx)
		},
	}

	cmd.Flags().Int("port", 0, "Port to listen on (default 8088)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload when the YAML metadata directory changes")
	cmd.Flags().Bool("ignore-staging", false, "Leave out staging tables")

	return cmd
}
