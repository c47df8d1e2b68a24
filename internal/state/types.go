package state

import "time"

// Category groups independently addressed entities.
type Category string

const (
	Decks       Category = "decks"
	Channels    Category = "channels"
	MasterClock Category = "masterClock"
	Browser     Category = "browser"
)

// Categories lists every category in snapshot order.
var Categories = []Category{Decks, Channels, MasterClock, Browser}

// Singleton reports whether the category holds exactly one entity.
func (c Category) Singleton() bool {
	return c == MasterClock || c == Browser
}

func (c Category) Valid() bool {
	switch c {
	case Decks, Channels, MasterClock, Browser:
		return true
	}
	return false
}

func ParseCategory(raw string) (Category, bool) {
	c := Category(raw)
	return c, c.Valid()
}

// Key identifies one entity. Singletons use an empty ID.
type Key struct {
	Category Category
	ID       string
}

func (k Key) String() string {
	if k.Category.Singleton() {
		return string(k.Category)
	}
	return string(k.Category) + "/" + k.ID
}

// TimestampField is stamped by the merge engine on every commit.
const TimestampField = "timestamp"

// timestampLayout matches the ISO-8601 form producers and browsers expect.
const timestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Fields is the decoded JSON object of one entity state.
type Fields map[string]any

// Clone returns a deep copy; nested objects and arrays are copied too.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case Fields:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// Float returns a numeric field. JSON numbers decode as float64.
func (f Fields) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (f Fields) String(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f[key].(bool)
	return v, ok
}

// Snapshot is the full store content at one instant.
type Snapshot struct {
	Decks       map[string]Fields  `json:"decks"`
	Channels    map[string]Fields  `json:"channels"`
	MasterClock Fields             `json:"masterClock"`
	Browser     Fields             `json:"browser"`
	BaseBPM     map[string]float64 `json:"baseBpm"`
}

// Lookup returns the entity for key from the snapshot.
func (s Snapshot) Lookup(key Key) (Fields, bool) {
	switch key.Category {
	case Decks:
		f, ok := s.Decks[key.ID]
		return f, ok
	case Channels:
		f, ok := s.Channels[key.ID]
		return f, ok
	case MasterClock:
		return s.MasterClock, s.MasterClock != nil
	case Browser:
		return s.Browser, s.Browser != nil
	}
	return nil, false
}

// ChangeKind distinguishes deck loads from ordinary merges.
type ChangeKind string

const (
	KindLoaded  ChangeKind = "loaded"
	KindUpdated ChangeKind = "updated"
)

// Change is one committed merge handed to the publisher.
type Change struct {
	Kind     ChangeKind
	Key      Key
	State    Fields
	BaseBPM  float64
	HasBase  bool
	Revision string
}
