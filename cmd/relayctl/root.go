package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultRelayURL = "http://localhost:8080"

type commandContext struct {
	relayURL string
	format   string
	timeout  time.Duration
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "relayctl",
		Short:         "Inspect and drive a Traktor state relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	relay := os.Getenv("RELAY_URL")
	if relay == "" {
		relay = defaultRelayURL
	}
	rootCmd.PersistentFlags().StringVarP(&ctx.relayURL, "relay", "r", relay, "Relay base URL")
	rootCmd.PersistentFlags().StringVar(&ctx.format, "format", formatAuto, "Output format: auto, table or json")
	rootCmd.PersistentFlags().DurationVar(&ctx.timeout, "timeout", 10*time.Second, "Timeout for one-shot requests")

	rootCmd.AddCommand(newSnapshotCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newLoadCommand(ctx))
	rootCmd.AddCommand(newUpdateCommand(ctx))

	return rootCmd
}

func (c *commandContext) client() *relayClient {
	return newRelayClient(c.relayURL, c.timeout)
}
