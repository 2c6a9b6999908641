package composer

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind tags an Event.
type EventKind int

const (
	EventHotplug EventKind = iota
	EventBlank
	EventVideo
)

func (k EventKind) String() string {
	switch k {
	case EventHotplug:
		return "hotplug"
	case EventBlank:
		return "blank"
	case EventVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Event is an asynchronous display notification. Only the fields for Kind
// are meaningful.
type Event struct {
	ID   string
	Kind EventKind

	Connected bool // EventHotplug
	Blank     bool // EventBlank
	Preparing bool // EventVideo
	Playing   bool // EventVideo
}

// HotplugEvent returns a hotplug event with a fresh ID.
func HotplugEvent(connected bool) Event {
	return Event{ID: uuid.NewString(), Kind: EventHotplug, Connected: connected}
}

// BlankEvent returns a blank event with a fresh ID.
func BlankEvent(blank bool) Event {
	return Event{ID: uuid.NewString(), Kind: EventBlank, Blank: blank}
}

// VideoEvent returns a video state event with a fresh ID.
func VideoEvent(preparing, playing bool) Event {
	return Event{ID: uuid.NewString(), Kind: EventVideo, Preparing: preparing, Playing: playing}
}

// eventQueue is a FIFO of pending events. The lock covers queue manipulation
// only; callers dispatch drained events without holding it.
type eventQueue struct {
	mu      sync.Mutex
	pending []Event
}

func (q *eventQueue) push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, e)
}

// drain removes and returns all pending events in arrival order.
func (q *eventQueue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	out := q.pending
	q.pending = nil
	return out
}

func (q *eventQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
}

func (q *eventQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
