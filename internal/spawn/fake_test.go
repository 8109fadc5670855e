package spawn

import (
	"fmt"
	"sync"

	"github.com/random-media/backend/internal/placement"
	"github.com/random-media/backend/internal/scene"
)

// fakeSurface is a hand-driven scene.Surface: completions fire only when the
// test calls fireCompletion, and every reference movement is counted.
type fakeSurface struct {
	mu sync.Mutex

	canvasW float64
	canvasH float64
	itemW   float64
	itemH   float64

	failCreates int // fail this many Create calls, then succeed
	failPlaces  int

	creates    int
	refs       map[*fakeHandle]int
	placed     map[*fakePlacement]bool
	removes    int
	callbacks  map[string]func()
	transforms []placement.Transform
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		canvasW:   1920,
		canvasH:   1080,
		itemW:     1280,
		itemH:     720,
		refs:      make(map[*fakeHandle]int),
		placed:    make(map[*fakePlacement]bool),
		callbacks: make(map[string]func()),
	}
}

type fakeHandle struct {
	id   string
	path string
	w, h float64
}

func (h *fakeHandle) ID() string               { return h.id }
func (h *fakeHandle) Path() string             { return h.path }
func (h *fakeHandle) Size() (float64, float64) { return h.w, h.h }

type fakePlacement struct {
	handle *fakeHandle
}

func (p *fakePlacement) Handle() scene.Handle { return p.handle }

type fakeSub struct {
	cancel func()
}

func (s *fakeSub) Cancel() { s.cancel() }

func (f *fakeSurface) Canvas() (float64, float64) {
	return f.canvasW, f.canvasH
}

func (f *fakeSurface) Create(path string, opts scene.CreateOptions) (scene.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failCreates > 0 {
		f.failCreates--
		return nil, fmt.Errorf("simulated create failure")
	}
	h := &fakeHandle{id: fmt.Sprintf("h%d", f.creates), path: path, w: f.itemW, h: f.itemH}
	f.refs[h] = 1
	return h, nil
}

func (f *fakeSurface) Place(h scene.Handle) (scene.Placement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPlaces > 0 {
		f.failPlaces--
		return nil, fmt.Errorf("simulated place failure")
	}
	fh := h.(*fakeHandle)
	pl := &fakePlacement{handle: fh}
	f.placed[pl] = true
	f.refs[fh]++
	return pl, nil
}

func (f *fakeSurface) SetTransform(pl scene.Placement, t placement.Transform) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transforms = append(f.transforms, t)
}

func (f *fakeSurface) Remove(pl scene.Placement) {
	fp := pl.(*fakePlacement)
	f.mu.Lock()
	if !f.placed[fp] {
		f.mu.Unlock()
		return
	}
	delete(f.placed, fp)
	f.removes++
	f.mu.Unlock()
	f.Release(fp.handle)
}

func (f *fakeSurface) SubscribeCompletion(h scene.Handle, fn func()) (scene.Subscription, error) {
	fh := h.(*fakeHandle)
	f.mu.Lock()
	f.callbacks[fh.id] = fn
	f.mu.Unlock()
	return &fakeSub{cancel: func() {
		f.mu.Lock()
		delete(f.callbacks, fh.id)
		f.mu.Unlock()
	}}, nil
}

func (f *fakeSurface) Release(h scene.Handle) {
	fh := h.(*fakeHandle)
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.refs[fh]; ok {
		if n <= 1 {
			delete(f.refs, fh)
		} else {
			f.refs[fh] = n - 1
		}
	}
}

// fireCompletion invokes the completion callback registered for the
// element's handle, mimicking the host raising the playback-ended event.
// It deliberately does not unregister the callback, so tests can fire it
// again to exercise double-fire handling.
func (f *fakeSurface) fireCompletion(handleID string) bool {
	f.mu.Lock()
	fn, ok := f.callbacks[handleID]
	f.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}

func (f *fakeSurface) liveHandles() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refs)
}

func (f *fakeSurface) placedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.placed)
}

func (f *fakeSurface) removeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removes
}

func (f *fakeSurface) transformCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transforms)
}
