package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lord-carlos/traktor-api-client/internal/observer"
	"github.com/lord-carlos/traktor-api-client/internal/realtime"
	"github.com/lord-carlos/traktor-api-client/internal/state"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow live state pushed by the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			client, err := observer.Dial(runCtx, ctx.relayURL)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			seen := 0
			err = client.Run(runCtx, func(env realtime.Envelope) {
				fmt.Fprint(out, describe(client.View(), env))
				seen++
				if count > 0 && seen >= count {
					cancel()
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many messages (0 follows forever)")
	return cmd
}

// describe renders one pushed message against the already-updated view.
func describe(view *observer.View, env realtime.Envelope) string {
	switch env.Type {
	case realtime.TypeInitialData:
		return "Connected, current state:\n" + renderSnapshot(view.Snapshot())
	case realtime.TypeDeckLoaded:
		deck, _ := view.Deck(env.Deck)
		var b strings.Builder
		fmt.Fprintf(&b, "\n--- Deck %s Loaded ---\n", env.Deck)
		fmt.Fprintf(&b, "Title: %s\n", field(deck, "title"))
		fmt.Fprintf(&b, "Artist: %s\n", field(deck, "artist"))
		fmt.Fprintf(&b, "BPM: %s\n", state.FormatBPM(view.DeckBPM(env.Deck)))
		fmt.Fprintf(&b, "Key: %s\n", field(deck, "keyText"))
		return b.String()
	case realtime.TypeUpdateDeck:
		deck, _ := view.Deck(env.Deck)
		return fmt.Sprintf("Deck %s: %s, %s BPM, tempo %s, elapsed %s\n",
			env.Deck, playState(deck), state.FormatBPM(view.DeckBPM(env.Deck)),
			number(deck, "tempo", "%.2f"), clock(deck, "elapsedTime"))
	case realtime.TypeUpdateChannel:
		ch, _ := view.Channel(env.Channel)
		return fmt.Sprintf("Channel %s: level %s, %s\n", env.Channel, level(ch), onAir(ch))
	case realtime.TypeUpdateMasterClock:
		mc, _ := view.Entity(state.Key{Category: state.MasterClock})
		return masterClockLine(mc) + "\n"
	case realtime.TypeUpdateBrowser:
		browser, _ := view.Entity(state.Key{Category: state.Browser})
		return browserLine(browser) + "\n"
	}
	return ""
}
