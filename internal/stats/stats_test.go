package stats

import (
	"context"
	"testing"
	"time"

	"github.com/random-media/backend/internal/active"
)

func newTestTracker(t *testing.T) (*Tracker, chan<- active.Event) {
	t.Helper()
	tr, ch, err := NewTracker(NewStore(t.TempDir()))
	if err != nil {
		t.Fatalf("NewTracker() error: %v", err)
	}
	return tr, ch
}

func TestProcessEvents(t *testing.T) {
	tr, _ := newTestTracker(t)

	now := time.Now()
	events := []active.Event{
		{Type: active.EventSpawned, ElementID: "a", Path: "/m/a.mp4", ActiveCount: 1, Time: now},
		{Type: active.EventSpawned, ElementID: "b", Path: "/m/b.MP4", ActiveCount: 2, Time: now},
		{Type: active.EventSpawned, ElementID: "c", Path: "/m/c.gif", ActiveCount: 3, Time: now},
		{Type: active.EventFailed, Path: "/m/broken.avi", ActiveCount: 3},
		{Type: active.EventCompleted, ElementID: "a", ActiveCount: 2},
		{Type: active.EventCleared, ElementID: "b", ActiveCount: 1},
	}
	for _, ev := range events {
		tr.processEvent(ev)
	}

	st := tr.Stats()
	if st.TotalSpawned != 3 {
		t.Errorf("TotalSpawned = %d, want 3", st.TotalSpawned)
	}
	if st.TotalFailed != 1 || st.TotalCompleted != 1 || st.TotalCleared != 1 {
		t.Errorf("failed/completed/cleared = %d/%d/%d, want 1/1/1",
			st.TotalFailed, st.TotalCompleted, st.TotalCleared)
	}
	if st.MaxConcurrentActive != 3 {
		t.Errorf("MaxConcurrentActive = %d, want 3", st.MaxConcurrentActive)
	}
	if st.SpawnsPerExtension[".mp4"] != 2 {
		t.Errorf("SpawnsPerExtension[.mp4] = %d, want 2 (case folded)", st.SpawnsPerExtension[".mp4"])
	}
	if st.SpawnsPerExtension[".gif"] != 1 {
		t.Errorf("SpawnsPerExtension[.gif] = %d, want 1", st.SpawnsPerExtension[".gif"])
	}
	if !st.LastSpawnAt.Equal(now) {
		t.Errorf("LastSpawnAt = %v, want %v", st.LastSpawnAt, now)
	}
}

func TestStatsReturnsCopy(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.processEvent(active.Event{Type: active.EventSpawned, Path: "/m/a.mp4", ActiveCount: 1})

	st := tr.Stats()
	st.TotalSpawned = 99
	st.SpawnsPerExtension[".mp4"] = 99

	fresh := tr.Stats()
	if fresh.TotalSpawned != 1 || fresh.SpawnsPerExtension[".mp4"] != 1 {
		t.Error("Stats() mutation leaked into tracker")
	}
}

func TestRunSavesOnShutdown(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	tr, ch, err := NewTracker(store)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	ch <- active.Event{Type: active.EventSpawned, Path: "/m/a.mp4", ActiveCount: 1}

	// Give Run a moment to consume the event, then shut down.
	deadline := time.After(time.Second)
	for tr.Stats().TotalSpawned == 0 {
		select {
		case <-deadline:
			t.Fatal("event never processed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after shutdown: %v", err)
	}
	if loaded.TotalSpawned != 1 {
		t.Errorf("persisted TotalSpawned = %d, want 1", loaded.TotalSpawned)
	}
}
