package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/subscribe"
	"github.com/DeBrosOfficial/pubsub-client/pkg/wire"
)

func newSubscribeCmd(g *globalFlags) *cobra.Command {
	var (
		groups   []string
		duration time.Duration
		presence bool
	)
	cmd := &cobra.Command{
		Use:   "subscribe [channel...]",
		Short: "Print messages from channels and channel groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(groups) == 0 {
				return fmt.Errorf("at least one channel or --group is required")
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if presence {
				cfg.Client.Presence = true
			}
			c, err := client.New(cfg, client.WithQuietMode(!g.verbose))
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			sub, err := c.Subscribe(ctx, client.SubscribeInput{Channels: args, Groups: groups})
			if err != nil {
				return err
			}
			return streamSubscription(ctx, cmd, g.format, c, sub)
		},
	}
	cmd.Flags().StringSliceVarP(&groups, "group", "g", nil, "channel group to subscribe to (repeatable)")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (0 runs until interrupted)")
	cmd.Flags().BoolVar(&presence, "presence", false, "also receive presence events")
	return cmd
}

func streamSubscription(ctx context.Context, cmd *cobra.Command, format string, c *client.Client, sub *client.Subscription) error {
	out := cmd.OutOrStdout()
	events := c.StatusEvents()
	for {
		select {
		case env, ok := <-sub.Messages():
			if !ok {
				if err := sub.Err(); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			}
			if err := printEnvelope(cmd, format, env); err != nil {
				return err
			}
		case st, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			printStatus(cmd, st)
		case <-ctx.Done():
			if sub.Lost() > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d messages dropped while the terminal was slow\n", sub.Lost())
			}
			fmt.Fprintln(out, "Subscription ended")
			return nil
		}
	}
}

func printEnvelope(cmd *cobra.Command, format string, env wire.Envelope) error {
	out := cmd.OutOrStdout()
	if format == "json" {
		return printJSON(out, env)
	}
	if env.Kind == wire.KindPresence && env.Presence != nil {
		_, err := fmt.Fprintf(out, "[%s] %s presence %s %s (occupancy %d)\n",
			env.Timetoken.ValueString(), env.Channel, env.Presence.Action, env.Presence.UUID, env.Presence.Occupancy)
		return err
	}
	via := ""
	if env.SubscriptionMatch != "" {
		via = " via " + env.SubscriptionMatch
	}
	_, err := fmt.Fprintf(out, "[%s] %s%s %s: %s\n", env.Timetoken.ValueString(), env.Channel, via, env.Kind, env.Payload)
	return err
}

func printStatus(cmd *cobra.Command, st subscribe.Status) {
	switch st.Category {
	case subscribe.CategoryBackoff:
		fmt.Fprintf(cmd.ErrOrStderr(), "connection lost (%d failures), retrying in %s: %s\n", st.Failures, st.Delay, st.Error())
	case subscribe.CategoryReconnected:
		fmt.Fprintf(cmd.ErrOrStderr(), "reconnected after %d failures\n", st.Failures)
	case subscribe.CategoryPaused, subscribe.CategoryTerminated:
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", st.Category, st.Error())
	case subscribe.CategoryMalformed:
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped malformed messages: %s\n", st.Error())
	}
}

func newPublishCmd(g *globalFlags) *cobra.Command {
	var (
		meta    string
		noStore bool
		ttl     int
	)
	cmd := &cobra.Command{
		Use:   "publish <channel> <message>",
		Short: "Publish a message; JSON arguments are sent as JSON, anything else as a string",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			opts := client.PublishOptions{TTL: ttl}
			if meta != "" {
				opts.Meta = parseMessage(meta)
			}
			if noStore {
				store := false
				opts.Store = &store
			}

			ctx, cancel := g.opContext(cmd)
			defer cancel()
			tt, err := c.Publish(ctx, args[0], parseMessage(args[1]), opts)
			if err != nil {
				return fmt.Errorf("failed to publish: %w", err)
			}
			return printPublished(cmd, g.format, args[0], tt.ValueString())
		},
	}
	cmd.Flags().StringVar(&meta, "meta", "", "JSON metadata usable by filter expressions")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not keep the message in history")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "history retention in hours")
	return cmd
}

func newSignalCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "signal <channel> <message>",
		Short: "Send a small, unstored signal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := g.opContext(cmd)
			defer cancel()
			tt, err := c.Signal(ctx, args[0], parseMessage(args[1]))
			if err != nil {
				return fmt.Errorf("failed to signal: %w", err)
			}
			return printPublished(cmd, g.format, args[0], tt.ValueString())
		},
	}
}

func printPublished(cmd *cobra.Command, format, channel, tt string) error {
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{"channel": channel, "timetoken": tt})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Published to %s at %s\n", channel, tt)
	return err
}
