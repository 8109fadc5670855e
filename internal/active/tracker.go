// Package active tracks the set of currently live spawned elements and
// enforces the admission cap.
package active

import (
	"sort"
	"sync"
	"time"

	"github.com/random-media/backend/internal/scene"
)

// Element is one live spawned item. Fields are set once at creation; the
// tracker never touches the scene handle or placement itself — resource
// release is the lifecycle monitor's job.
type Element struct {
	ID        string
	Path      string
	Handle    scene.Handle
	Placement scene.Placement
	CreatedAt time.Time
}

// Tracker is the admission-controlled registry of active elements. A single
// mutex serializes every operation; nothing blocking (surface calls, disk
// I/O) ever runs under it. The cap covers reserved-but-unfilled slots too,
// so concurrent spawns cannot overshoot while a creation is in flight.
type Tracker struct {
	mu       sync.Mutex
	max      int
	reserved int
	elements map[string]*Element
}

func NewTracker(maxActive int) *Tracker {
	if maxActive < 1 {
		maxActive = 1
	}
	return &Tracker{
		max:      maxActive,
		elements: make(map[string]*Element),
	}
}

// TryReserve atomically claims one slot under the cap. The caller must
// resolve a successful reservation with exactly one Add or Release.
func (t *Tracker) TryReserve() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.elements)+t.reserved >= t.max {
		return false
	}
	t.reserved++
	return true
}

// Add registers el into a previously reserved slot. Element ids must be
// unique; a duplicate id consumes the reservation without inserting.
func (t *Tracker) Add(el *Element) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reserved > 0 {
		t.reserved--
	}
	if _, exists := t.elements[el.ID]; exists {
		return
	}
	t.elements[el.ID] = el
}

// Release returns an unused reserved slot, e.g. after a failed creation.
func (t *Tracker) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reserved > 0 {
		t.reserved--
	}
}

// Remove deletes the element with the given id and reports whether it was
// present. Removing an absent id is a safe no-op, which is what makes the
// teardown paths idempotent.
func (t *Tracker) Remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.elements[id]; !ok {
		return false
	}
	delete(t.elements, id)
	return true
}

// Count returns the number of occupied and reserved slots.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.elements) + t.reserved
}

// Max returns the admission cap.
func (t *Tracker) Max() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.max
}

// Snapshot returns copies of the active elements ordered by creation time.
// For reporting only; mutating the copies does not affect the tracker.
func (t *Tracker) Snapshot() []Element {
	t.mu.Lock()
	out := make([]Element, 0, len(t.elements))
	for _, el := range t.elements {
		out = append(out, *el)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
