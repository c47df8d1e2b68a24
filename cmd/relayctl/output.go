package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lord-carlos/traktor-api-client/internal/state"
)

const (
	formatAuto  = "auto"
	formatTable = "table"
	formatJSON  = "json"
)

// useTable resolves the --format flag. Auto picks tables only for a
// terminal.
func useTable(cmd *cobra.Command, format string) (bool, error) {
	switch format {
	case formatTable:
		return true, nil
	case formatJSON:
		return false, nil
	case formatAuto, "":
		return isTerminal(cmd.OutOrStdout()), nil
	default:
		return false, fmt.Errorf("unknown format %q (want auto, table or json)", format)
	}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderSnapshot(snap state.Snapshot) string {
	var b strings.Builder

	deckRows := make([][]string, 0, len(snap.Decks))
	for _, id := range sortedIDs(snap.Decks) {
		deck := snap.Decks[id]
		deckRows = append(deckRows, []string{
			id,
			field(deck, "title"),
			field(deck, "artist"),
			state.FormatBPM(displayBPM(snap, id)),
			number(deck, "tempo", "%.2f"),
			field(deck, "keyText"),
			playState(deck),
			clock(deck, "elapsedTime"),
		})
	}
	if len(deckRows) == 0 {
		b.WriteString("No deck data yet\n")
	} else {
		b.WriteString(renderTable(
			[]string{"Deck", "Title", "Artist", "BPM", "Tempo", "Key", "State", "Elapsed"},
			deckRows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignRight},
		))
		b.WriteString("\n")
	}

	channelRows := make([][]string, 0, len(snap.Channels))
	for _, id := range sortedIDs(snap.Channels) {
		channelRows = append(channelRows, []string{id, level(snap.Channels[id]), onAir(snap.Channels[id])})
	}
	if len(channelRows) > 0 {
		b.WriteString(renderTable(
			[]string{"Channel", "Level", "On Air"},
			channelRows,
			[]columnAlignment{alignLeft, alignRight, alignLeft},
		))
		b.WriteString("\n")
	}

	b.WriteString(masterClockLine(snap.MasterClock))
	b.WriteString("\n")
	b.WriteString(browserLine(snap.Browser))
	b.WriteString("\n")
	return b.String()
}

// displayBPM mirrors the relay's derivation: load-time base times tempo,
// zero for decks that were never loaded.
func displayBPM(snap state.Snapshot, deck string) float64 {
	return state.DeckBPM(snap.BaseBPM[deck], state.Tempo(snap.Decks[deck]))
}

func masterClockLine(mc state.Fields) string {
	if mc == nil {
		return "Master clock: unknown"
	}
	deck := field(mc, "deck")
	if deck == "-" {
		deck = "None"
	}
	return fmt.Sprintf("Master clock: deck %s at %s BPM", deck, number(mc, "bpm", "%.2f"))
}

func browserLine(browser state.Fields) string {
	if browser == nil {
		return "Browser: unknown"
	}
	return fmt.Sprintf("Browser: %s > %s", field(browser, "path"), field(browser, "selectedName"))
}

func sortedIDs(entities map[string]state.Fields) []string {
	ids := make([]string, 0, len(entities))
	for id := range entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func field(f state.Fields, key string) string {
	if s, ok := f.String(key); ok && s != "" {
		return s
	}
	return "-"
}

func number(f state.Fields, key, format string) string {
	if v, ok := f.Float(key); ok {
		return fmt.Sprintf(format, v)
	}
	return "-"
}

func clock(f state.Fields, key string) string {
	if v, ok := f.Float(key); ok {
		return state.FormatClock(v)
	}
	return "-"
}

func playState(deck state.Fields) string {
	playing, ok := deck.Bool("isPlaying")
	switch {
	case !ok:
		return "-"
	case playing:
		return "Playing"
	default:
		return "Stopped"
	}
}

func level(channel state.Fields) string {
	if v, ok := channel.Float("onAirLevel"); ok {
		return state.FormatPercent(state.LevelPercent(v))
	}
	return "-"
}

func onAir(channel state.Fields) string {
	if on, _ := channel.Bool("isOnAir"); on {
		return "On Air"
	}
	return "Off Air"
}
