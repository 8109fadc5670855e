package spawn

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/random-media/backend/internal/active"
	"github.com/random-media/backend/internal/inventory"
)

func testInventory(t *testing.T, names ...string) *inventory.Provider {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := inventory.NewProvider(dir)
	p.Reload()
	return p
}

type rig struct {
	orch    *Orchestrator
	fake    *fakeSurface
	tracker *active.Tracker
	monitor *Monitor
}

func newRig(t *testing.T, maxActive int, s Settings, files ...string) *rig {
	t.Helper()
	if len(files) == 0 {
		files = []string{"a.mp4", "b.mov", "c.png"}
	}
	inv := testInventory(t, files...)
	fake := newFakeSurface()
	tracker := active.NewTracker(maxActive)
	mon := NewMonitor(fake, tracker, nil)
	return &rig{
		orch:    New(inv, tracker, fake, mon, s, nil),
		fake:    fake,
		tracker: tracker,
		monitor: mon,
	}
}

func plainSettings(count int) Settings {
	return Settings{SpawnCount: count, Volume: 1}
}

func TestSpawnEmptyInventory(t *testing.T) {
	inv := inventory.NewProvider("")
	fake := newFakeSurface()
	tracker := active.NewTracker(5)
	orch := New(inv, tracker, fake, NewMonitor(fake, tracker, nil), plainSettings(2), nil)

	res := orch.Spawn(plainSettings(2))

	if res.Created != 0 || res.Requested != 2 {
		t.Errorf("Result = %+v, want created 0 requested 2", res)
	}
	if res.Status != "no media files" {
		t.Errorf("Status = %q, want \"no media files\"", res.Status)
	}
	if fake.creates != 0 {
		t.Errorf("surface.Create called %d times on empty inventory", fake.creates)
	}
}

func TestSpawnBatch(t *testing.T) {
	s := plainSettings(3)
	s.RandomTransform = true
	r := newRig(t, 10, s)

	res := r.orch.Spawn(s)

	if res.Created != 3 || res.Requested != 3 {
		t.Fatalf("Result = %+v, want created 3 of 3", res)
	}
	if res.Status != "ok" {
		t.Errorf("Status = %q, want ok", res.Status)
	}
	if res.ActiveCount != 3 || r.tracker.Count() != 3 {
		t.Errorf("active count = %d / %d, want 3", res.ActiveCount, r.tracker.Count())
	}
	if r.fake.placedCount() != 3 {
		t.Errorf("placed = %d, want 3", r.fake.placedCount())
	}
	if r.fake.transformCount() != 3 {
		t.Errorf("transforms applied = %d, want 3", r.fake.transformCount())
	}
}

func TestSpawnTransformDisabled(t *testing.T) {
	s := plainSettings(2)
	r := newRig(t, 10, s)

	r.orch.Spawn(s)

	if r.fake.transformCount() != 0 {
		t.Errorf("transforms applied = %d, want 0 when disabled", r.fake.transformCount())
	}
}

// Two elements active at a cap of two: a batch of three creates nothing and
// must say so.
func TestSpawnAtCap(t *testing.T) {
	s := plainSettings(2)
	r := newRig(t, 2, s)

	if res := r.orch.Spawn(s); res.Created != 2 {
		t.Fatalf("setup spawn created %d, want 2", res.Created)
	}

	res := r.orch.Spawn(plainSettings(3))

	if res.Created != 0 || res.Requested != 3 {
		t.Errorf("Result = %+v, want created 0 requested 3", res)
	}
	if res.ActiveCount != 2 {
		t.Errorf("ActiveCount = %d, want 2", res.ActiveCount)
	}
	if res.Status != "active cap reached" {
		t.Errorf("Status = %q", res.Status)
	}
	if r.fake.creates != 2 {
		t.Errorf("surface.Create called %d times, want 2 (no attempt past the cap)", r.fake.creates)
	}
}

func TestSpawnCreationFailureReleasesSlotAndContinues(t *testing.T) {
	s := plainSettings(3)
	r := newRig(t, 10, s)
	r.fake.failCreates = 1

	res := r.orch.Spawn(s)

	if res.Created != 2 || res.Requested != 3 {
		t.Errorf("Result = %+v, want created 2 of 3", res)
	}
	if res.Status != "created 2 of 3" {
		t.Errorf("Status = %q", res.Status)
	}
	if r.tracker.Count() != 2 {
		t.Errorf("tracker count = %d, want 2 (failed slot released)", r.tracker.Count())
	}
}

func TestSpawnPlacementFailureReleasesHandle(t *testing.T) {
	s := plainSettings(1)
	r := newRig(t, 10, s)
	r.fake.failPlaces = 1

	res := r.orch.Spawn(s)

	if res.Created != 0 {
		t.Errorf("Created = %d, want 0", res.Created)
	}
	if r.fake.liveHandles() != 0 {
		t.Errorf("live handles = %d, want 0 (handle released on place failure)", r.fake.liveHandles())
	}
	if r.tracker.Count() != 0 {
		t.Errorf("tracker count = %d, want 0", r.tracker.Count())
	}
}

func TestSpawnWithoutWatchReleasesCreationRef(t *testing.T) {
	s := plainSettings(1)
	r := newRig(t, 10, s)

	r.orch.Spawn(s)

	// Only the surface's own placement reference remains per element.
	if r.fake.liveHandles() != 1 {
		t.Errorf("live handles = %d, want 1", r.fake.liveHandles())
	}
	if r.monitor.WatchCount() != 0 {
		t.Errorf("WatchCount = %d, want 0", r.monitor.WatchCount())
	}
}

func TestSpawnHideOnEndRegistersWatch(t *testing.T) {
	s := plainSettings(2)
	s.HideOnEnd = true
	r := newRig(t, 10, s)

	r.orch.Spawn(s)

	if r.monitor.WatchCount() != 2 {
		t.Errorf("WatchCount = %d, want 2", r.monitor.WatchCount())
	}
}

// The sum of concurrent batches must never push the active set past the cap.
func TestConcurrentSpawnsRespectCap(t *testing.T) {
	const maxActive = 5
	s := plainSettings(4)
	r := newRig(t, maxActive, s)

	var wg sync.WaitGroup
	results := make(chan Result, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.orch.Spawn(s)
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for res := range results {
		total += res.Created
	}
	if total > maxActive {
		t.Errorf("concurrent spawns created %d elements, cap is %d", total, maxActive)
	}
	if got := r.tracker.Count(); got > maxActive {
		t.Errorf("tracker count = %d, cap is %d", got, maxActive)
	}
	if got := r.fake.placedCount(); got != total {
		t.Errorf("placed = %d, created = %d", got, total)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	s := plainSettings(3)
	s.HideOnEnd = true
	r := newRig(t, 10, s)

	r.orch.Spawn(s)
	if removed := r.orch.Clear(); removed != 3 {
		t.Errorf("Clear() = %d, want 3", removed)
	}

	if r.tracker.Count() != 0 {
		t.Errorf("tracker count = %d, want 0", r.tracker.Count())
	}
	if r.fake.placedCount() != 0 {
		t.Errorf("placed = %d, want 0", r.fake.placedCount())
	}
	if r.fake.liveHandles() != 0 {
		t.Errorf("live handles = %d, want 0", r.fake.liveHandles())
	}
	if r.monitor.WatchCount() != 0 {
		t.Errorf("WatchCount = %d, want 0", r.monitor.WatchCount())
	}
}

func TestClearUnwatchedElements(t *testing.T) {
	s := plainSettings(2)
	r := newRig(t, 10, s)

	r.orch.Spawn(s)
	if removed := r.orch.Clear(); removed != 2 {
		t.Errorf("Clear() = %d, want 2", removed)
	}
	if r.fake.liveHandles() != 0 {
		t.Errorf("live handles = %d, want 0", r.fake.liveHandles())
	}
}

func TestSpawnEmitsEvents(t *testing.T) {
	events := make(chan active.Event, 16)
	inv := testInventory(t, "a.mp4")
	fake := newFakeSurface()
	tracker := active.NewTracker(5)
	mon := NewMonitor(fake, tracker, events)
	orch := New(inv, tracker, fake, mon, plainSettings(2), events)

	orch.Spawn(plainSettings(2))

	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			if ev.Type != active.EventSpawned {
				t.Errorf("event %d type = %s, want spawned", i, ev.Type)
			}
			if ev.ElementID == "" || ev.Path == "" {
				t.Errorf("event %d missing identity: %+v", i, ev)
			}
		default:
			t.Fatalf("expected 2 spawn events, got %d", i)
		}
	}
}
