package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultObserverBuffer is the queue depth used when none is configured.
const DefaultObserverBuffer = 64

// Observer is one registered push-channel consumer. The hub writes encoded
// messages into its queue; the transport drains Messages until it closes.
type Observer struct {
	ID         string
	RemoteAddr string

	queue chan []byte

	mu     sync.Mutex
	closed bool
	drops  int
}

func NewObserver(buffer int) *Observer {
	if buffer <= 0 {
		buffer = DefaultObserverBuffer
	}
	return &Observer{ID: uuid.NewString(), queue: make(chan []byte, buffer)}
}

// Messages is closed once the observer is disconnected.
func (o *Observer) Messages() <-chan []byte {
	return o.queue
}

// offer does a non-blocking enqueue. It reports whether the payload was
// queued and the number of consecutive drops so far.
func (o *Observer) offer(payload []byte) (bool, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false, 0
	}
	select {
	case o.queue <- payload:
		o.drops = 0
		return true, 0
	default:
		o.drops++
		return false, o.drops
	}
}

func (o *Observer) close() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.closed = true
	close(o.queue)
	return true
}
