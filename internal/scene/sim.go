package scene

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/random-media/backend/internal/placement"
)

// Simulated intrinsic media dimensions. Real decode is out of scope here, so
// every element reports the same plausible source size.
const (
	simIntrinsicW = 1280.0
	simIntrinsicH = 720.0
)

// Sim is an in-process Surface that fakes playback: each subscribed element
// completes after a random duration drawn from [minDur, maxDur]. It keeps
// real reference counts so tests can verify that every handle reference
// handed out is returned exactly once.
type Sim struct {
	canvasW float64
	canvasH float64
	minDur  time.Duration
	maxDur  time.Duration

	mu         sync.Mutex
	rng        *rand.Rand
	refs       map[*simHandle]int
	placements map[*simPlacement]bool
}

func NewSim(canvasW, canvasH float64, minDur, maxDur time.Duration) *Sim {
	return &Sim{
		canvasW:    canvasW,
		canvasH:    canvasH,
		minDur:     minDur,
		maxDur:     maxDur,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		refs:       make(map[*simHandle]int),
		placements: make(map[*simPlacement]bool),
	}
}

type simHandle struct {
	id   string
	path string
}

func (h *simHandle) ID() string   { return h.id }
func (h *simHandle) Path() string { return h.path }
func (h *simHandle) Size() (float64, float64) {
	return simIntrinsicW, simIntrinsicH
}

type simPlacement struct {
	handle *simHandle
}

func (p *simPlacement) Handle() Handle { return p.handle }

type simSubscription struct {
	timer *time.Timer
}

func (s *simSubscription) Cancel() {
	s.timer.Stop()
}

func (s *Sim) Canvas() (float64, float64) {
	return s.canvasW, s.canvasH
}

func (s *Sim) Create(path string, opts CreateOptions) (Handle, error) {
	if path == "" {
		return nil, fmt.Errorf("create: empty media path")
	}
	h := &simHandle{id: uuid.NewString(), path: path}

	s.mu.Lock()
	s.refs[h] = 1
	s.mu.Unlock()

	return h, nil
}

func (s *Sim) Place(h Handle) (Placement, error) {
	sh, ok := h.(*simHandle)
	if !ok {
		return nil, fmt.Errorf("place: foreign handle %T", h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs[sh] == 0 {
		return nil, fmt.Errorf("place: handle %s already released", sh.id)
	}
	pl := &simPlacement{handle: sh}
	s.placements[pl] = true
	s.refs[sh]++ // the surface's own reference
	return pl, nil
}

func (s *Sim) SetTransform(pl Placement, t placement.Transform) {
	// Nothing renders, so the transform is only logged for inspection.
	log.Printf("scene: %s placed at (%.0f, %.0f) scale (%.2f, %.2f)",
		pl.Handle().ID(), t.X, t.Y, t.ScaleX, t.ScaleY)
}

func (s *Sim) Remove(pl Placement) {
	sp, ok := pl.(*simPlacement)
	if !ok {
		return
	}

	s.mu.Lock()
	if !s.placements[sp] {
		s.mu.Unlock()
		return
	}
	delete(s.placements, sp)
	s.mu.Unlock()

	s.Release(sp.handle)
}

func (s *Sim) SubscribeCompletion(h Handle, fn func()) (Subscription, error) {
	if _, ok := h.(*simHandle); !ok {
		return nil, fmt.Errorf("subscribe: foreign handle %T", h)
	}

	s.mu.Lock()
	dur := s.minDur
	if s.maxDur > s.minDur {
		dur += time.Duration(s.rng.Int63n(int64(s.maxDur - s.minDur)))
	}
	s.mu.Unlock()

	return &simSubscription{timer: time.AfterFunc(dur, fn)}, nil
}

func (s *Sim) Release(h Handle) {
	sh, ok := h.(*simHandle)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.refs[sh]
	if !ok {
		log.Printf("scene: release of unknown handle %s", sh.id)
		return
	}
	if n <= 1 {
		delete(s.refs, sh)
		return
	}
	s.refs[sh] = n - 1
}

// LiveHandles reports how many handles still hold at least one reference.
func (s *Sim) LiveHandles() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// PlacedCount reports how many elements are currently on the surface.
func (s *Sim) PlacedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.placements)
}
