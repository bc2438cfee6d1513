package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/provgate/internal/api"
	"github.com/leapstack-labs/provgate/internal/registry"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the governance API over HTTP",
		Long: `Start the HTTP API exposing lineage inspection, chain verification,
the rule catalog, and gate validation. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)

			store, cleanup, err := OpenStore(cmdCtx.Cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			g, err := NewGate(cmdCtx.Cfg, store, cmdCtx.Logger)
			if err != nil {
				return err
			}

			listenAddr := cmdCtx.Cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				listenAddr = addr
			}

			srv := api.NewServer(api.Config{
				Store:    store,
				Registry: registry.NewStoreRegistry(store),
				Gate:     g,
				Addr:     listenAddr,
				Logger:   cmdCtx.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
