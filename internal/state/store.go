package state

import "sync"

// Store holds the latest known state of every entity. Reads return copies.
type Store struct {
	mu       sync.RWMutex
	entities map[Category]map[string]Fields
	baseBPM  map[string]float64
}

func NewStore() *Store {
	entities := make(map[Category]map[string]Fields, len(Categories))
	for _, c := range Categories {
		entities[c] = map[string]Fields{}
	}
	return &Store{entities: entities, baseBPM: map[string]float64{}}
}

// Get returns the current state for key. ok is false when nothing was ever
// committed for that identity.
func (s *Store) Get(category Category, id string) (Fields, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.entities[category][normalizeID(category, id)]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// GetAll copies every known entity under one read lock.
func (s *Store) GetAll() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Decks:    make(map[string]Fields, len(s.entities[Decks])),
		Channels: make(map[string]Fields, len(s.entities[Channels])),
		BaseBPM:  make(map[string]float64, len(s.baseBPM)),
	}
	for id, f := range s.entities[Decks] {
		snap.Decks[id] = f.Clone()
	}
	for id, f := range s.entities[Channels] {
		snap.Channels[id] = f.Clone()
	}
	if f, ok := s.entities[MasterClock][""]; ok {
		snap.MasterClock = f.Clone()
	}
	if f, ok := s.entities[Browser][""]; ok {
		snap.Browser = f.Clone()
	}
	for id, bpm := range s.baseBPM {
		snap.BaseBPM[id] = bpm
	}
	return snap
}

// Put replaces the stored state for one identity.
func (s *Store) Put(category Category, id string, state Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(category, id, state)
}

// PutLoaded replaces a deck state and its base BPM in one step so a snapshot
// never pairs a new track with the previous track's base.
func (s *Store) PutLoaded(deck string, state Fields, baseBPM float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(Decks, deck, state)
	s.baseBPM[deck] = baseBPM
}

func (s *Store) put(category Category, id string, state Fields) {
	bucket, ok := s.entities[category]
	if !ok {
		return
	}
	bucket[normalizeID(category, id)] = state.Clone()
}

// BaseBPM returns the BPM recorded by the last load of deck.
func (s *Store) BaseBPM(deck string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bpm, ok := s.baseBPM[deck]
	return bpm, ok
}

// DeckWithBase reads a deck's state and its base BPM under one lock. base is
// 0 when the deck was never loaded.
func (s *Store) DeckWithBase(deck string) (Fields, float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.entities[Decks][deck]
	if !ok {
		return nil, 0, false
	}
	return f.Clone(), s.baseBPM[deck], true
}

// Len counts known entities across all categories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, bucket := range s.entities {
		n += len(bucket)
	}
	return n
}

func normalizeID(category Category, id string) string {
	if category.Singleton() {
		return ""
	}
	return id
}
