package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lord-carlos/traktor-api-client/internal/state"
)

type updateFlags struct {
	sets []string
}

func (f *updateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.sets, "set", "s", nil, "Field to send as key=value (repeatable; JSON values are decoded)")
}

func newLoadCommand(ctx *commandContext) *cobra.Command {
	var flags updateFlags
	cmd := &cobra.Command{
		Use:   "load <deck> [json|-]",
		Short: "Report a track load on a deck",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendUpdate(cmd, ctx, "/deckLoaded/"+args[0], args[1:], flags.sets)
		},
	}
	flags.register(cmd)
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Send a partial state update as the producer would",
	}

	entity := func(use, short, prefix string, args cobra.PositionalArgs) *cobra.Command {
		var flags updateFlags
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				path := prefix
				if strings.HasSuffix(prefix, "/") {
					path += args[0]
					args = args[1:]
				}
				return sendUpdate(cmd, ctx, path, args, flags.sets)
			},
		}
		flags.register(cmd)
		return cmd
	}

	updateCmd.AddCommand(
		entity("deck <deck> [json|-]", "Update deck state", "/updateDeck/", cobra.RangeArgs(1, 2)),
		entity("channel <channel> [json|-]", "Update mixer channel state", "/updateChannel/", cobra.RangeArgs(1, 2)),
		entity("master-clock [json|-]", "Update the master clock", "/updateMasterClock", cobra.MaximumNArgs(1)),
		entity("browser [json|-]", "Update the browser selection", "/updateBrowser", cobra.MaximumNArgs(1)),
	)
	return updateCmd
}

func sendUpdate(cmd *cobra.Command, ctx *commandContext, path string, body []string, sets []string) error {
	table, err := useTable(cmd, ctx.format)
	if err != nil {
		return err
	}
	update, err := parseUpdate(body, sets, cmd.InOrStdin())
	if err != nil {
		return err
	}
	committed, err := ctx.client().post(cmd.Context(), path, update)
	if err != nil {
		return err
	}
	if !table {
		return writeJSON(cmd, committed)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderFields(committed))
	return nil
}

// parseUpdate builds an update from an optional JSON object argument ("-"
// reads stdin) overlaid with --set pairs.
func parseUpdate(body []string, sets []string, stdin io.Reader) (state.Fields, error) {
	update := state.Fields{}
	if len(body) > 0 {
		raw := []byte(body[0])
		if body[0] == "-" {
			var err error
			if raw, err = io.ReadAll(stdin); err != nil {
				return nil, fmt.Errorf("read update: %w", err)
			}
		}
		if err := json.Unmarshal(raw, &update); err != nil || update == nil {
			return nil, fmt.Errorf("update must be a JSON object")
		}
	}
	for _, set := range sets {
		key, value, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", set)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		update[key] = decoded
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("nothing to send: pass a JSON object or --set key=value")
	}
	return update, nil
}

func renderFields(f state.Fields) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, fmt.Sprint(f[k])})
	}
	return renderTable([]string{"Field", "Value"}, rows, nil)
}
