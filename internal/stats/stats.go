// Package stats accumulates aggregate spawn statistics from lifecycle
// events and persists them across restarts.
package stats

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/random-media/backend/internal/active"
)

const saveInterval = 30 * time.Second

// Tracker consumes lifecycle events and maintains the aggregate counters.
// It receives events on a channel and periodically persists dirty state to
// disk.
type Tracker struct {
	persist *Store
	stats   *Stats
	events  chan active.Event
	mu      sync.Mutex
	dirty   bool
}

// NewTracker creates a Tracker backed by the given persistence store. It
// loads existing stats from disk and returns the send-only channel the
// orchestrator delivers events on. The caller must run Run in a goroutine.
func NewTracker(persist *Store) (*Tracker, chan<- active.Event, error) {
	st, err := persist.Load()
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan active.Event, 256)
	t := &Tracker{
		persist: persist,
		stats:   st,
		events:  ch,
	}
	return t, ch, nil
}

// Run processes events and periodically saves dirty stats to disk. It
// blocks until ctx is cancelled, then performs a final save.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.save()
			return
		case ev := <-t.events:
			t.processEvent(ev)
		case <-ticker.C:
			t.mu.Lock()
			dirty := t.dirty
			t.mu.Unlock()
			if dirty {
				t.save()
			}
		}
	}
}

// Stats returns a copy of the current aggregate stats.
func (t *Tracker) Stats() *Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.clone()
}

func (t *Tracker) processEvent(ev active.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case active.EventSpawned:
		t.stats.TotalSpawned++
		t.stats.LastSpawnAt = ev.Time
		ext := strings.ToLower(filepath.Ext(ev.Path))
		if ext != "" {
			t.stats.SpawnsPerExtension[ext]++
		}
		if ev.ActiveCount > t.stats.MaxConcurrentActive {
			t.stats.MaxConcurrentActive = ev.ActiveCount
		}
	case active.EventFailed:
		t.stats.TotalFailed++
	case active.EventCompleted:
		t.stats.TotalCompleted++
	case active.EventCleared:
		t.stats.TotalCleared++
	}
	t.dirty = true
}

func (t *Tracker) save() {
	t.mu.Lock()
	snapshot := t.stats.clone()
	t.dirty = false
	t.mu.Unlock()

	if err := t.persist.Save(snapshot); err != nil {
		log.Printf("stats: save failed: %v", err)
	}
}
