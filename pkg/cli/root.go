// Package cli implements the pubsub command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/pubsub-client/pkg/client"
	"github.com/DeBrosOfficial/pubsub-client/pkg/config"
)

// BuildInfo is version metadata populated via -ldflags at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type globalFlags struct {
	configPath string
	format     string
	timeout    time.Duration
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd(info BuildInfo) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "pubsub",
		Short:         "Publish, subscribe and query presence on a hosted message bus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ~/.pubsub/config.yaml)")
	root.PersistentFlags().StringVarP(&flags.format, "format", "f", "table", "output format: table or json")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "timeout for one-shot operations")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log subscribe loop activity")

	root.AddCommand(
		newSubscribeCmd(flags),
		newPublishCmd(flags),
		newSignalCmd(flags),
		newHereNowCmd(flags),
		newSetStateCmd(flags),
		newRelayCmd(flags),
		newVersionCmd(info),
	)
	return root
}

// Execute runs the command tree against args.
func Execute(ctx context.Context, info BuildInfo, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd(info)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// loadConfig reads the config file, then applies PUBSUB_* environment overrides.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	path := g.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath("config.yaml"); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func (g *globalFlags) newClient() (*client.Client, *config.Config, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	c, err := client.New(cfg, client.WithQuietMode(!g.verbose))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, cfg, nil
}

func (g *globalFlags) opContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), g.timeout)
}
