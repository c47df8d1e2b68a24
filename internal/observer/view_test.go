package observer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/lord-carlos/traktor-api-client/internal/realtime"
	"github.com/lord-carlos/traktor-api-client/internal/state"
)

func encode(t *testing.T, msg realtime.Message) []byte {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return payload
}

func float(v float64) *float64 { return &v }

func seeded(t *testing.T, snap state.Snapshot) *View {
	t.Helper()
	v := NewView()
	_, err := v.Apply(encode(t, realtime.Message{Type: realtime.TypeInitialData, Data: snap}))
	assert.Equal(t, nil, err)
	return v
}

func TestIncrementBeforeSnapshotIsRejected(t *testing.T) {
	v := NewView()
	_, err := v.Apply(encode(t, realtime.Message{Type: realtime.TypeUpdateDeck, Deck: "A", Data: state.Fields{"title": "X"}}))
	assert.Equal(t, true, errors.Is(err, ErrNotSeeded))
	assert.Equal(t, false, v.Seeded())
}

func TestLoadedThenTempoScenario(t *testing.T) {
	v := seeded(t, state.Snapshot{})

	_, err := v.Apply(encode(t, realtime.Message{
		Type: realtime.TypeDeckLoaded, Deck: "A", Rev: "01",
		Data: state.Fields{"title": "X", "bpm": 128.0}, BaseBPM: float(128),
	}))
	assert.Equal(t, nil, err)
	_, err = v.Apply(encode(t, realtime.Message{
		Type: realtime.TypeUpdateDeck, Deck: "A", Rev: "02",
		Data: state.Fields{"title": "X", "bpm": 128.0, "tempo": 1.05}, BaseBPM: float(128),
	}))
	assert.Equal(t, nil, err)

	assert.Equal(t, "134.40", state.FormatBPM(v.DeckBPM("A")))
}

func TestChannelLevelScenario(t *testing.T) {
	v := seeded(t, state.Snapshot{})

	_, err := v.Apply(encode(t, realtime.Message{
		Type: realtime.TypeUpdateChannel, Channel: "2",
		Data: state.Fields{"onAirLevel": 0.5},
	}))
	assert.Equal(t, nil, err)

	pct, ok := v.LevelPercent("2")
	assert.Equal(t, true, ok)
	assert.Equal(t, "50%", state.FormatPercent(pct))
	assert.Equal(t, false, v.OnAir("2"))
}

func TestLateJoinerSeesUnknownDecks(t *testing.T) {
	v := seeded(t, state.Snapshot{
		Decks: map[string]state.Fields{
			"A": {"title": "X", "tempo": 1.0},
			"B": {"title": "Y"},
		},
		BaseBPM: map[string]float64{"A": 126},
	})

	_, ok := v.Deck("A")
	assert.Equal(t, true, ok)
	_, ok = v.Deck("B")
	assert.Equal(t, true, ok)
	_, ok = v.Deck("C")
	assert.Equal(t, false, ok)
	_, ok = v.Deck("D")
	assert.Equal(t, false, ok)
	_, ok = v.Entity(state.Key{Category: state.MasterClock})
	assert.Equal(t, false, ok)

	// base comes from the snapshot, not from a deckLoaded this observer missed
	assert.Equal(t, "126.00", state.FormatBPM(v.DeckBPM("A")))
	assert.Equal(t, 0.0, v.DeckBPM("B"))
}

func TestReapplyingAMessageIsIdempotent(t *testing.T) {
	v := seeded(t, state.Snapshot{})
	msg := encode(t, realtime.Message{
		Type: realtime.TypeUpdateBrowser, Rev: "05",
		Data: state.Fields{"path": "Playlists", "position": 3.0},
	})

	_, _ = v.Apply(msg)
	before := v.Snapshot()
	_, _ = v.Apply(msg)
	assert.Equal(t, before, v.Snapshot())
}

func TestStaleRevisionIsIgnored(t *testing.T) {
	v := seeded(t, state.Snapshot{})

	_, _ = v.Apply(encode(t, realtime.Message{Type: realtime.TypeUpdateMasterClock, Rev: "09", Data: state.Fields{"deck": "B"}}))
	_, _ = v.Apply(encode(t, realtime.Message{Type: realtime.TypeUpdateMasterClock, Rev: "08", Data: state.Fields{"deck": "A"}}))

	clock, ok := v.Entity(state.Key{Category: state.MasterClock})
	assert.Equal(t, true, ok)
	assert.Equal(t, "B", clock["deck"])
}

func TestUnknownMessageType(t *testing.T) {
	v := seeded(t, state.Snapshot{})
	_, err := v.Apply([]byte(`{"type":"chat","data":{}}`))
	assert.Equal(t, true, errors.Is(err, ErrUnknownMessage))
}

func TestSocketURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8081":     "ws://localhost:8081/socket",
		"https://relay.example/":    "wss://relay.example/socket",
		"ws://10.0.0.2:8081/socket": "ws://10.0.0.2:8081/socket",
		"http://host/prefix":        "ws://host/prefix/socket",
	}
	for in, want := range cases {
		got, err := SocketURL(in)
		assert.Equal(t, nil, err)
		assert.Equal(t, want, got)
	}
	_, err := SocketURL("ftp://host")
	assert.NotEqual(t, nil, err)
}

func TestZeroTempoCountsAsUnshifted(t *testing.T) {
	v := seeded(t, state.Snapshot{
		Decks:   map[string]state.Fields{"A": {"title": "X", "tempo": 0.0}},
		BaseBPM: map[string]float64{"A": 128},
	})
	assert.Equal(t, "128.00", state.FormatBPM(v.DeckBPM("A")))
}
