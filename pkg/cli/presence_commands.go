package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
)

func newHereNowCmd(g *globalFlags) *cobra.Command {
	var includeState bool
	cmd := &cobra.Command{
		Use:   "here-now <channel>",
		Short: "List who is present on a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := g.opContext(cmd)
			defer cancel()
			hn, err := c.HereNow(ctx, args[0], client.HereNowOptions{IncludeState: includeState})
			if err != nil {
				return fmt.Errorf("failed to query presence: %w", err)
			}

			if g.format == "json" {
				return printJSON(cmd.OutOrStdout(), hn)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d present\n", hn.Channel, hn.Occupancy)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, o := range hn.Occupants {
				fmt.Fprintf(w, "  %s\t%s\n", o.UUID, o.State)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&includeState, "state", false, "include each occupant's state")
	return cmd
}

func newSetStateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "set-state <channel> <json>",
		Short: "Attach presence state to this user on a channel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := g.newClient()
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := g.opContext(cmd)
			defer cancel()
			state, err := c.SetPresenceState(ctx, args[0], parseMessage(args[1]))
			if err != nil {
				return fmt.Errorf("failed to set state: %w", err)
			}
			if g.format == "json" {
				return printJSON(cmd.OutOrStdout(), state)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "State for %s on %s: %s\n", c.UserID(), args[0], state)
			return err
		},
	}
}
