package geopolitical

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ducminhle1904/moex-risk-engine/internal/errors"
)

// DefaultEventLogCapacity bounds the event log when no capacity is configured
const DefaultEventLogCapacity = 256

// EventLog retains the most recent events in a fixed-size ring. Once full,
// each Add evicts the oldest event. Safe for concurrent use.
type EventLog struct {
	mu       sync.RWMutex
	events   []Event
	next     int
	size     int
	evicted  int
	capacity int
}

// NewEventLog creates an event log holding at most capacity events
func NewEventLog(capacity int) (*EventLog, error) {
	if capacity <= 0 {
		return nil, errors.NewConfigurationError("geopolitical", "event log capacity must be positive, got %d", capacity)
	}
	return &EventLog{events: make([]Event, capacity), capacity: capacity}, nil
}

// Add validates and stores an event, assigning an ID when it has none
func (l *EventLog) Add(e Event) (Event, error) {
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.size == l.capacity {
		l.evicted++
	} else {
		l.size++
	}
	l.events[l.next] = e
	l.next = (l.next + 1) % l.capacity
	return e, nil
}

// All returns the retained events, oldest first
func (l *EventLog) All() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, l.size)
	start := (l.next - l.size + l.capacity) % l.capacity
	for i := 0; i < l.size; i++ {
		out = append(out, l.events[(start+i)%l.capacity])
	}
	return out
}

// Active returns the retained events in effect at now, oldest first
func (l *EventLog) Active(now time.Time) []Event {
	var out []Event
	for _, e := range l.All() {
		if e.IsActive(now) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained events
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

// Evicted returns how many events have been dropped to stay within capacity
func (l *EventLog) Evicted() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.evicted
}

// Capacity returns the maximum number of retained events
func (l *EventLog) Capacity() int { return l.capacity }
