package state

import (
	"fmt"
	"math"
)

// DeckBPM derives the displayed BPM from a load-time base and the current
// tempo multiplier.
func DeckBPM(base, tempo float64) float64 {
	return base * tempo
}

// Tempo reads a deck's tempo multiplier. A missing or zero tempo counts as
// 1 so a deck that reports no pitch shows its base BPM.
func Tempo(deck Fields) float64 {
	tempo, ok := deck.Float("tempo")
	if !ok || tempo == 0 {
		return 1
	}
	return tempo
}

func FormatBPM(bpm float64) string {
	return fmt.Sprintf("%.2f", bpm)
}

// LevelPercent converts a 0.0-1.0 channel level to a percentage clamped to
// 0-100.
func LevelPercent(level float64) float64 {
	return math.Min(100, math.Max(0, level*100))
}

func FormatPercent(percent float64) string {
	return fmt.Sprintf("%.0f%%", percent)
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
