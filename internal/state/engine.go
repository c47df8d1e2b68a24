package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnencodable rejects values JSON cannot carry, such as NaN.
	ErrUnencodable = errors.New("update is not JSON encodable")
)

// Publisher receives every committed change. Implementations must not block.
type Publisher interface {
	Publish(change Change)
}

// Engine merges partial updates into the store and forwards each commit to
// the publisher.
type Engine struct {
	store     *Store
	publisher Publisher
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[Key]*sync.Mutex
}

func NewEngine(store *Store, publisher Publisher) *Engine {
	return &Engine{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		locks:     map[Key]*sync.Mutex{},
	}
}

// Apply overlays update onto the entity's current state, stamps the receipt
// time, commits, and publishes. Fields absent from update are kept.
func (e *Engine) Apply(category Category, id string, update Fields) (Fields, error) {
	return e.commit(KindUpdated, category, id, update)
}

// Load is Apply for a deck-load event. The update's bpm becomes the deck's
// base BPM until the next load; a load without a numeric bpm records 0.
func (e *Engine) Load(deck string, update Fields) (Fields, error) {
	return e.commit(KindLoaded, Decks, deck, update)
}

func (e *Engine) commit(kind ChangeKind, category Category, id string, update Fields) (Fields, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if _, err := json.Marshal(update); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnencodable, err)
	}
	key := Key{Category: category, ID: normalizeID(category, id)}

	// Held across publish so observers see one entity's commits in order.
	lock := e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	previous, _ := e.store.Get(category, key.ID)
	next := overlay(previous, update)
	next[TimestampField] = FormatTimestamp(e.now())

	change := Change{
		Kind:     kind,
		Key:      key,
		State:    next,
		Revision: ulid.Make().String(),
	}
	if kind == KindLoaded {
		base, _ := update.Float("bpm")
		e.store.PutLoaded(key.ID, next, base)
		change.BaseBPM, change.HasBase = base, true
		glog.V(1).Infof("[merge]%s loaded base bpm=%.2f", key, base)
	} else {
		e.store.Put(category, key.ID, next)
		if category == Decks {
			change.BaseBPM, change.HasBase = e.store.BaseBPM(key.ID)
		}
		glog.V(2).Infof("[merge]%s fields=%d", key, len(update))
	}

	e.publish(change)
	return next.Clone(), nil
}

// publish isolates the commit from publisher panics.
func (e *Engine) publish(change Change) {
	if e.publisher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("[merge]%s publish panic: %v", change.Key, r)
		}
	}()
	e.publisher.Publish(change)
}

func (e *Engine) lockFor(key Key) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	lock, ok := e.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[key] = lock
	}
	return lock
}

// BaseBPM returns the base recorded at the deck's last load, or 0 when the
// deck was never loaded.
func (e *Engine) BaseBPM(deck string) float64 {
	bpm, _ := e.store.BaseBPM(deck)
	return bpm
}

// DisplayBPM is the deck's base BPM scaled by its current tempo.
func (e *Engine) DisplayBPM(deck string) float64 {
	current, base, ok := e.store.DeckWithBase(deck)
	if !ok {
		return 0
	}
	return DeckBPM(base, Tempo(current))
}

// overlay returns previous with every key of update replaced. Nested objects
// are replaced whole, not merged.
func overlay(previous, update Fields) Fields {
	next := previous.Clone()
	if next == nil {
		next = make(Fields, len(update))
	}
	for k, v := range update {
		next[k] = cloneValue(v)
	}
	return next
}
