package ws

import (
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 1000
	defaultBufferMaxAge = 1 * time.Hour
)

// scopeBuffer holds the retained events of one scope plus the highest ID
// that has been evicted from it.
type scopeBuffer struct {
	events  []Event
	evicted uint64
}

// EventBuffer stores recent events per scope (one user or one department)
// for replay on reconnect. IDs come from a hub-wide sequence, so within a
// scope they are increasing but not contiguous.
type EventBuffer struct {
	mu     sync.RWMutex
	scopes map[string]*scopeBuffer
	maxAge time.Duration
	maxLen int
	stop   chan struct{}
	once   sync.Once
}

// NewEventBuffer creates an EventBuffer with the given limits and starts
// a background goroutine that removes idle scopes every 10 minutes.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	eb := &EventBuffer{
		scopes: make(map[string]*scopeBuffer),
		maxAge: maxAge,
		maxLen: maxLen,
		stop:   make(chan struct{}),
	}
	go eb.cleanupLoop()

	return eb
}

// Stop halts the background cleanup goroutine. It is safe to call twice.
func (eb *EventBuffer) Stop() {
	eb.once.Do(func() { close(eb.stop) })
}

func (eb *EventBuffer) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-eb.stop:
			return
		case <-ticker.C:
			eb.evictIdleScopes()
		}
	}
}

func (eb *EventBuffer) evictIdleScopes() {
	cutoff := time.Now().Add(-eb.maxAge)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for scope, sb := range eb.scopes {
		if len(sb.events) == 0 || sb.events[len(sb.events)-1].Time.Before(cutoff) {
			delete(eb.scopes, scope)
		}
	}
}

// Append stores an event for potential replay, evicting expired entries and
// enforcing the per-scope length cap.
func (eb *EventBuffer) Append(scope string, event *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sb, ok := eb.scopes[scope]
	if !ok {
		sb = &scopeBuffer{}
		eb.scopes[scope] = sb
	}

	cutoff := time.Now().Add(-eb.maxAge)
	start := 0
	for start < len(sb.events) && sb.events[start].Time.Before(cutoff) {
		start++
	}

	sb.events = append(sb.events, *event)
	if over := len(sb.events) - start - eb.maxLen; over > 0 {
		start += over
	}

	if start > 0 {
		sb.evicted = sb.events[start-1].ID
		sb.events = sb.events[start:]
	}
}

// Since returns all events for a scope with ID > lastEventID.
// Returns nil if the scope has no buffered events.
func (eb *EventBuffer) Since(scope string, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	sb, ok := eb.scopes[scope]
	if !ok || len(sb.events) == 0 {
		return nil
	}

	lo := sort.Search(len(sb.events), func(i int) bool { return sb.events[i].ID > lastEventID })
	if lo >= len(sb.events) {
		return nil
	}

	result := make([]Event, len(sb.events)-lo)
	copy(result, sb.events[lo:])

	return result
}

// Complete reports whether every event of the scope after lastEventID is
// still buffered.
func (eb *EventBuffer) Complete(scope string, lastEventID uint64) bool {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	sb, ok := eb.scopes[scope]
	if !ok {
		return true
	}

	return lastEventID >= sb.evicted
}
