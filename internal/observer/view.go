// Package observer reconstructs the relay's state from its push channel.
package observer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lord-carlos/traktor-api-client/internal/realtime"
	"github.com/lord-carlos/traktor-api-client/internal/state"
)

var (
	ErrNotSeeded      = errors.New("incremental message before initialData")
	ErrUnknownMessage = errors.New("unknown message type")
)

// View is an observer-side copy of the store. Incremental messages replace
// the whole entity (last write wins), so re-applying a message is a no-op.
type View struct {
	mu       sync.RWMutex
	seeded   bool
	entities map[state.Key]state.Fields
	baseBPM  map[string]float64
	revs     map[state.Key]string
}

func NewView() *View {
	return &View{
		entities: map[state.Key]state.Fields{},
		baseBPM:  map[string]float64{},
		revs:     map[state.Key]string{},
	}
}

// Apply decodes one push message and folds it into the view. It returns the
// decoded envelope so callers can react to the message kind.
func (v *View) Apply(payload []byte) (realtime.Envelope, error) {
	var env realtime.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return env, fmt.Errorf("decode message: %w", err)
	}
	if env.Type == realtime.TypeInitialData {
		var snap state.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return env, fmt.Errorf("decode snapshot: %w", err)
		}
		v.seed(snap)
		return env, nil
	}

	key, ok := env.Key()
	if !ok {
		return env, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}
	var fields state.Fields
	if err := json.Unmarshal(env.Data, &fields); err != nil {
		return env, fmt.Errorf("decode %s: %w", env.Type, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.seeded {
		return env, ErrNotSeeded
	}
	if env.Rev != "" && env.Rev < v.revs[key] {
		return env, nil
	}
	v.entities[key] = fields
	if env.Rev != "" {
		v.revs[key] = env.Rev
	}
	if key.Category == state.Decks && env.BaseBPM != nil {
		v.baseBPM[key.ID] = *env.BaseBPM
	}
	return env, nil
}

func (v *View) seed(snap state.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seeded = true
	v.entities = map[state.Key]state.Fields{}
	v.revs = map[state.Key]string{}
	v.baseBPM = map[string]float64{}
	for id, f := range snap.Decks {
		v.entities[state.Key{Category: state.Decks, ID: id}] = f
	}
	for id, f := range snap.Channels {
		v.entities[state.Key{Category: state.Channels, ID: id}] = f
	}
	if snap.MasterClock != nil {
		v.entities[state.Key{Category: state.MasterClock}] = snap.MasterClock
	}
	if snap.Browser != nil {
		v.entities[state.Key{Category: state.Browser}] = snap.Browser
	}
	for id, bpm := range snap.BaseBPM {
		v.baseBPM[id] = bpm
	}
}

func (v *View) Seeded() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.seeded
}

// Entity returns a copy of one entity; false means no data yet.
func (v *View) Entity(key state.Key) (state.Fields, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	f, ok := v.entities[key]
	return f.Clone(), ok
}

func (v *View) Deck(id string) (state.Fields, bool) {
	return v.Entity(state.Key{Category: state.Decks, ID: id})
}

func (v *View) Channel(id string) (state.Fields, bool) {
	return v.Entity(state.Key{Category: state.Channels, ID: id})
}

// DeckBPM is the load-time base times the deck's current tempo. A deck that
// was never loaded reports 0 even if it carries a bpm field.
func (v *View) DeckBPM(id string) float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	deck, ok := v.entities[state.Key{Category: state.Decks, ID: id}]
	if !ok {
		return 0
	}
	return state.DeckBPM(v.baseBPM[id], state.Tempo(deck))
}

// LevelPercent reports the channel level as 0-100, if a level was ever sent.
func (v *View) LevelPercent(channel string) (float64, bool) {
	f, ok := v.Channel(channel)
	if !ok {
		return 0, false
	}
	level, ok := f.Float("onAirLevel")
	if !ok {
		return 0, false
	}
	return state.LevelPercent(level), true
}

// OnAir is false unless isOnAir was explicitly sent as true.
func (v *View) OnAir(channel string) bool {
	f, ok := v.Channel(channel)
	if !ok {
		return false
	}
	on, _ := f.Bool("isOnAir")
	return on
}

// Snapshot copies the view back into store form.
func (v *View) Snapshot() state.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	snap := state.Snapshot{
		Decks:    map[string]state.Fields{},
		Channels: map[string]state.Fields{},
		BaseBPM:  map[string]float64{},
	}
	for key, f := range v.entities {
		switch key.Category {
		case state.Decks:
			snap.Decks[key.ID] = f.Clone()
		case state.Channels:
			snap.Channels[key.ID] = f.Clone()
		case state.MasterClock:
			snap.MasterClock = f.Clone()
		case state.Browser:
			snap.Browser = f.Clone()
		}
	}
	for id, bpm := range v.baseBPM {
		snap.BaseBPM[id] = bpm
	}
	return snap
}
