package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/logging"
	"github.com/DeBrosOfficial/pubsub-client/pkg/relay"
)

func newRelayCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Serve subscribe over WebSocket and publish/presence over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Relay.ListenAddr = addr
			}
			if err := multierr.Combine(cfg.ValidateRelay()...); err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Logging.LoggerOptions())
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer logger.Sync()

			c, err := client.New(cfg, client.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return relay.New(c, cfg.Relay, logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides relay.listen_addr)")
	return cmd
}
