package spawn

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/random-media/backend/internal/active"
	"github.com/random-media/backend/internal/scene"
)

// Monitor owns the completion watches of spawned elements. For each watched
// element it holds the one extra handle reference taken at spawn time and is
// the only component that releases it. Teardown for an element runs its
// release effects at most once, no matter how often the completion event
// fires or whether the element was already removed by a clear.
type Monitor struct {
	surface scene.Surface
	tracker *active.Tracker
	events  chan<- active.Event

	mu      sync.Mutex
	watches map[string]*watch
}

type watch struct {
	once sync.Once
	el   *active.Element
	sub  scene.Subscription
}

// NewMonitor creates a lifecycle monitor. events may be nil.
func NewMonitor(surface scene.Surface, tracker *active.Tracker, events chan<- active.Event) *Monitor {
	return &Monitor{
		surface: surface,
		tracker: tracker,
		events:  events,
		watches: make(map[string]*watch),
	}
}

// Watch subscribes to el's completion event. The monitor takes ownership of
// the caller's handle reference; on error the reference stays with the
// caller. The surface may fire the callback from any goroutine, including
// before Watch returns.
func (m *Monitor) Watch(el *active.Element) error {
	w := &watch{el: el}

	m.mu.Lock()
	if _, exists := m.watches[el.ID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("element %s already watched", el.ID)
	}
	m.watches[el.ID] = w
	m.mu.Unlock()

	sub, err := m.surface.SubscribeCompletion(el.Handle, func() {
		m.finish(el.ID, active.EventCompleted)
	})
	if err != nil {
		m.mu.Lock()
		delete(m.watches, el.ID)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	// The callback may already have torn the watch down; cancel the
	// subscription rather than resurrecting it.
	if live, ok := m.watches[el.ID]; !ok || live != w {
		m.mu.Unlock()
		sub.Cancel()
		return nil
	}
	w.sub = sub
	m.mu.Unlock()
	return nil
}

// Teardown removes a watched element right now, as if its playback had
// completed. Reports whether a live watch existed. Safe to race with the
// completion event: whichever side runs first wins and the other is a no-op.
func (m *Monitor) Teardown(id string) bool {
	return m.finish(id, active.EventCleared)
}

// WatchCount reports the number of live subscriptions.
func (m *Monitor) WatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watches)
}

// finish claims the watch for id and runs its teardown exactly once. A
// second completion fire, or a completion after an explicit teardown, finds
// no watch and returns false.
func (m *Monitor) finish(id string, reason active.EventType) bool {
	m.mu.Lock()
	w, ok := m.watches[id]
	if ok {
		delete(m.watches, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	w.once.Do(func() {
		if w.sub != nil {
			w.sub.Cancel()
		}
		m.tracker.Remove(w.el.ID)
		m.surface.Remove(w.el.Placement)
		m.surface.Release(w.el.Handle)

		log.Printf("spawn: element %s torn down (%s)", w.el.ID, reason)
		emit(m.events, active.Event{
			Type:        reason,
			ElementID:   w.el.ID,
			Path:        w.el.Path,
			ActiveCount: m.tracker.Count(),
			Time:        time.Now(),
		})
	})
	return true
}

// emit delivers ev without ever blocking a teardown or spawn path. A full
// observer channel drops the event.
func emit(ch chan<- active.Event, ev active.Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
