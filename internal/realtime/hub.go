package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/lord-carlos/traktor-api-client/internal/state"
)

var ErrAlreadyConnected = errors.New("observer already connected")

// DefaultMaxDrops disconnects an observer after this many consecutive drops.
const DefaultMaxDrops = 32

type HubOptions struct {
	// MaxDrops is the number of consecutive dropped messages after which a
	// slow observer is disconnected. Zero uses DefaultMaxDrops; negative
	// never disconnects.
	MaxDrops int
}

// Stats is a point-in-time view of hub counters.
type Stats struct {
	Observers int    `json:"observers"`
	Published uint64 `json:"published"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
}

// Hub fans committed changes out to observers and seeds each new observer
// with one snapshot of the store.
type Hub struct {
	store    *state.Store
	maxDrops int

	mu        sync.RWMutex
	observers map[string]*Observer

	published atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func NewHub(store *state.Store, opts HubOptions) *Hub {
	maxDrops := opts.MaxDrops
	if maxDrops == 0 {
		maxDrops = DefaultMaxDrops
	}
	return &Hub{store: store, maxDrops: maxDrops, observers: map[string]*Observer{}}
}

// Connect registers o and queues the initialData snapshot as its first
// message. The snapshot is read while the registry is locked, so every commit
// is either in the snapshot or published to o afterwards.
func (h *Hub) Connect(o *Observer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.observers[o.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, o.ID)
	}

	payload, err := json.Marshal(initialMessage(h.store.GetAll()))
	if err != nil {
		o.close()
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if ok, _ := o.offer(payload); !ok {
		o.close()
		return errors.New("observer queue rejected snapshot")
	}

	h.observers[o.ID] = o
	glog.Infof("[hub]observer connected id=%s remote=%s observers=%d", o.ID, o.RemoteAddr, len(h.observers))
	return nil
}

// Disconnect deregisters the observer and closes its queue. Unknown IDs are
// ignored.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	o, ok := h.observers[id]
	if ok {
		delete(h.observers, id)
	}
	remaining := len(h.observers)
	h.mu.Unlock()

	if ok && o.close() {
		glog.Infof("[hub]observer disconnected id=%s observers=%d", id, remaining)
	}
}

// Publish sends the full post-merge state to every observer without
// blocking. Implements state.Publisher.
func (h *Hub) Publish(change state.Change) {
	payload, err := json.Marshal(messageFor(change))
	if err != nil {
		glog.Errorf("[hub]%s marshal failed, skipping publish: %v", change.Key, err)
		return
	}
	h.published.Add(1)

	for _, o := range h.snapshotObservers() {
		sent, drops := o.offer(payload)
		if sent {
			h.delivered.Add(1)
			continue
		}
		if drops == 0 {
			// closed concurrently
			continue
		}
		h.dropped.Add(1)
		glog.V(1).Infof("[hub]drop %s for observer=%s consecutive=%d", change.Key, o.ID, drops)
		if h.maxDrops > 0 && drops >= h.maxDrops {
			glog.Warningf("[hub]observer %s too slow after %d drops, disconnecting", o.ID, drops)
			h.Disconnect(o.ID)
		}
	}
}

func (h *Hub) snapshotObservers() []*Observer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Observer, 0, len(h.observers))
	for _, o := range h.observers {
		out = append(out, o)
	}
	return out
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

func (h *Hub) Stats() Stats {
	return Stats{
		Observers: h.Count(),
		Published: h.published.Load(),
		Delivered: h.delivered.Load(),
		Dropped:   h.dropped.Load(),
	}
}

// Close disconnects every observer.
func (h *Hub) Close() {
	for _, o := range h.snapshotObservers() {
		h.Disconnect(o.ID)
	}
}
