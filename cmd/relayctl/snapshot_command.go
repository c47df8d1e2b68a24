package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the relay's current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := useTable(cmd, ctx.format)
			if err != nil {
				return err
			}
			snap, err := ctx.client().snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if !table {
				return writeJSON(cmd, snap)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderSnapshot(snap))
			return nil
		},
	}
}
