// Package scene defines the composition surface the spawner places elements
// onto, and a simulated implementation for running without a real compositor.
package scene

import "github.com/random-media/backend/internal/placement"

// Surface is the rendering target consumed by the spawn orchestrator. A
// created Handle is reference counted by the surface: Create hands the caller
// one reference, Place does not transfer it, and every reference must
// eventually be returned through Release. Implementations must be safe for
// concurrent use.
type Surface interface {
	// Canvas returns the composition dimensions in pixels.
	Canvas() (width, height float64)

	// Create loads the media at path into a playable element. The caller
	// owns the returned handle reference.
	Create(path string, opts CreateOptions) (Handle, error)

	// Place puts a created element onto the surface. On failure the handle
	// is untouched and the caller still owns its reference.
	Place(h Handle) (Placement, error)

	// SetTransform applies a placement sample to an on-surface element.
	// Called at most once per placement, at creation time.
	SetTransform(pl Placement, t placement.Transform)

	// Remove takes a placed element off the surface and drops the
	// surface's own reference to its handle. Removing an already removed
	// placement is a no-op.
	Remove(pl Placement)

	// SubscribeCompletion registers fn to run when the element finishes
	// playback. The surface may fire the callback from any goroutine.
	SubscribeCompletion(h Handle, fn func()) (Subscription, error)

	// Release returns one handle reference to the surface.
	Release(h Handle)
}

// Handle identifies a created (not necessarily placed) element.
type Handle interface {
	ID() string
	Path() string
	// Size returns the element's intrinsic dimensions, or (0, 0) while
	// they are unknown.
	Size() (width, height float64)
}

// Placement identifies an element that is live on the surface.
type Placement interface {
	Handle() Handle
}

// Subscription is a registered completion watch.
type Subscription interface {
	// Cancel unregisters the watch. Safe to call after the callback has
	// fired, and more than once.
	Cancel()
}

// CreateOptions carries per-element playback settings.
type CreateOptions struct {
	// Volume is the playback volume in [0, 1].
	Volume float64
	// RestartOnActivate restarts playback from the beginning whenever the
	// element becomes active on the surface.
	RestartOnActivate bool
	// CloseWhenInactive releases decoder resources while the element is
	// not being shown.
	CloseWhenInactive bool
}
