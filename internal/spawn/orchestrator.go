// Package spawn coordinates element creation: admission against the active
// cap, random pick from the inventory, creation and placement on the
// composition surface, transform application and the completion watch.
package spawn

import (
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/random-media/backend/internal/active"
	"github.com/random-media/backend/internal/inventory"
	"github.com/random-media/backend/internal/placement"
	"github.com/random-media/backend/internal/scene"
)

// Result reports the outcome of one spawn batch. Created may be lower than
// Requested: the cap stops a batch early and individual creation failures
// are skipped, never escalated.
type Result struct {
	Requested   int    `json:"requested"`
	Created     int    `json:"created"`
	ActiveCount int    `json:"activeCount"`
	Status      string `json:"status"`
}

// Orchestrator drives the spawn pipeline. It is safe for concurrent use:
// remote requests and the local auto trigger may call Spawn at the same
// time, and the tracker's atomic check-and-reserve keeps the combined result
// under the cap.
type Orchestrator struct {
	inv      *inventory.Provider
	tracker  *active.Tracker
	surface  scene.Surface
	monitor  *Monitor
	events   chan<- active.Event
	settings Settings
	seq      atomic.Int64
}

// New wires an orchestrator. events may be nil.
func New(inv *inventory.Provider, tracker *active.Tracker, surface scene.Surface, monitor *Monitor, settings Settings, events chan<- active.Event) *Orchestrator {
	return &Orchestrator{
		inv:      inv,
		tracker:  tracker,
		surface:  surface,
		monitor:  monitor,
		events:   events,
		settings: settings,
	}
}

// Settings returns the configured trigger snapshot.
func (o *Orchestrator) Settings() Settings {
	return o.settings
}

// ActiveCount returns the current number of occupied and reserved slots.
func (o *Orchestrator) ActiveCount() int {
	return o.tracker.Count()
}

// Active returns an ordered snapshot of the live elements.
func (o *Orchestrator) Active() []active.Element {
	return o.tracker.Snapshot()
}

// Inventory returns the inventory provider backing this orchestrator.
func (o *Orchestrator) Inventory() *inventory.Provider {
	return o.inv
}

// Spawn runs one batch of up to s.SpawnCount creations. An empty inventory
// is not an error; a failed reservation ends the batch; a failed creation
// releases its slot and moves on to the next pick.
func (o *Orchestrator) Spawn(s Settings) Result {
	files := o.inv.Snapshot()
	if len(files) == 0 {
		log.Printf("spawn: no media files, skipping")
		return Result{
			Requested:   s.SpawnCount,
			ActiveCount: o.tracker.Count(),
			Status:      "no media files",
		}
	}

	// Independent PRNG per call so concurrent triggers never share a
	// sequence and correlate their picks.
	rng := rand.New(rand.NewSource(time.Now().UnixNano() ^ o.seq.Add(1)<<32))

	res := Result{Requested: s.SpawnCount}
	capped := false
	for i := 0; i < s.SpawnCount; i++ {
		if !o.tracker.TryReserve() {
			log.Printf("spawn: active cap reached (%d/%d), stopping batch", o.tracker.Count(), o.tracker.Max())
			capped = true
			break
		}

		path := files[rng.Intn(len(files))]
		el, err := o.spawnOne(path, s, rng)
		if err != nil {
			o.tracker.Release()
			log.Printf("spawn: %s: %v", path, err)
			emit(o.events, active.Event{
				Type:        active.EventFailed,
				Path:        path,
				ActiveCount: o.tracker.Count(),
				Time:        time.Now(),
			})
			continue
		}

		res.Created++
		log.Printf("spawn: spawned %s as %s", path, el.ID)
		emit(o.events, active.Event{
			Type:        active.EventSpawned,
			ElementID:   el.ID,
			Path:        path,
			ActiveCount: o.tracker.Count(),
			Time:        el.CreatedAt,
		})
	}

	res.ActiveCount = o.tracker.Count()
	switch {
	case capped && res.Created == 0:
		res.Status = "active cap reached"
	case res.Created < res.Requested:
		res.Status = fmt.Sprintf("created %d of %d", res.Created, res.Requested)
	default:
		res.Status = "ok"
	}
	return res
}

// spawnOne creates, places, registers and optionally watches one element.
// The reserved tracker slot is consumed on success; on error the caller
// releases it.
func (o *Orchestrator) spawnOne(path string, s Settings, rng *rand.Rand) (*active.Element, error) {
	handle, err := o.surface.Create(path, scene.CreateOptions{
		Volume:            s.Volume,
		RestartOnActivate: true,
		CloseWhenInactive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	pl, err := o.surface.Place(handle)
	if err != nil {
		o.surface.Release(handle)
		return nil, fmt.Errorf("place: %w", err)
	}

	el := &active.Element{
		ID:        uuid.NewString(),
		Path:      path,
		Handle:    handle,
		Placement: pl,
		CreatedAt: time.Now(),
	}
	o.tracker.Add(el)

	if s.RandomTransform {
		o.surface.SetTransform(pl, o.sampleTransform(s, handle, rng))
	}

	if s.HideOnEnd && o.monitor != nil {
		// The creation reference moves to the monitor for the lifetime
		// of the subscription.
		if err := o.monitor.Watch(el); err != nil {
			log.Printf("spawn: completion watch for %s failed: %v", el.ID, err)
			o.surface.Release(handle)
		}
	} else {
		o.surface.Release(handle)
	}

	return el, nil
}

func (o *Orchestrator) sampleTransform(s Settings, handle scene.Handle, rng *rand.Rand) placement.Transform {
	cw, ch := o.surface.Canvas()
	if s.FitToCanvas {
		iw, ih := handle.Size()
		return placement.SampleFit(s.Transform, cw, ch, iw, ih, rng)
	}
	return placement.Sample(s.Transform, cw, ch, rng)
}

// Clear removes every active element immediately and returns how many were
// removed. Watched elements go through the monitor's exactly-once teardown,
// so a completion event arriving later is a harmless no-op.
func (o *Orchestrator) Clear() int {
	removed := 0
	for _, el := range o.tracker.Snapshot() {
		if o.monitor != nil && o.monitor.Teardown(el.ID) {
			removed++
			continue
		}
		if !o.tracker.Remove(el.ID) {
			continue
		}
		o.surface.Remove(el.Placement)
		removed++
		emit(o.events, active.Event{
			Type:        active.EventCleared,
			ElementID:   el.ID,
			Path:        el.Path,
			ActiveCount: o.tracker.Count(),
			Time:        time.Now(),
		})
	}
	if removed > 0 {
		log.Printf("spawn: cleared %d active elements", removed)
	}
	return removed
}
