// Package placement computes randomized position, scale and rotation samples
// for newly spawned elements. Sampling is pure: all inputs (bounds, canvas
// dimensions, the PRNG) are passed in, so callers control determinism.
package placement

import "math/rand"

// fitFallbackFraction is the assumed intrinsic size of an element, as a
// fraction of the canvas, when the real intrinsic size is unknown or zero.
// Keeps the bounded-fit scale derivation away from a division by zero.
const fitFallbackFraction = 0.25

// Params holds the raw, user-facing transform bounds. Scale bounds are
// percentages, rotation bounds degrees, position bounds pixels where a value
// <= 0 means "use the canvas edge". Inverted ranges (min > max) are accepted
// and normalized before sampling.
type Params struct {
	MinScale        float64
	MaxScale        float64
	PreserveAspect  bool
	MinRotation     float64
	MaxRotation     float64
	DisableRotation bool
	MinX            float64
	MinY            float64
	MaxX            float64
	MaxY            float64
}

// Transform is one placement sample. It is computed once per element at
// creation and never recomputed. HasRotation reports whether a rotation was
// sampled at all; when false the element's rotation is left untouched.
type Transform struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	ScaleX      float64 `json:"scaleX"`
	ScaleY      float64 `json:"scaleY"`
	Rotation    float64 `json:"rotation,omitempty"`
	HasRotation bool    `json:"hasRotation"`
}

// Sample draws a uniform random transform within the normalized bounds.
// Position bounds default to the canvas edges when unset.
func Sample(p Params, canvasW, canvasH float64, rng *rand.Rand) Transform {
	x0, x1 := normalizeAxis(p.MinX, p.MaxX, canvasW)
	y0, y1 := normalizeAxis(p.MinY, p.MaxY, canvasH)
	sMin, sMax := normalizeScale(p.MinScale, p.MaxScale)

	t := Transform{
		X:      uniform(rng, x0, x1),
		Y:      uniform(rng, y0, y1),
		ScaleX: uniform(rng, sMin, sMax),
	}
	if p.PreserveAspect {
		t.ScaleY = t.ScaleX
	} else {
		t.ScaleY = uniform(rng, sMin, sMax)
	}

	sampleRotation(p, rng, &t)
	return t
}

// SampleFit is the bounded variant of Sample: the element is scaled so its
// on-canvas width equals sampledScale * canvasW and the position range is
// clamped so the element stays fully inside the canvas. itemW/itemH are the
// element's intrinsic dimensions; zero or negative values fall back to a
// fixed fraction of the canvas.
func SampleFit(p Params, canvasW, canvasH, itemW, itemH float64, rng *rand.Rand) Transform {
	if itemW <= 0 {
		itemW = canvasW * fitFallbackFraction
	}
	if itemH <= 0 {
		itemH = canvasH * fitFallbackFraction
	}

	sMin, sMax := normalizeScale(p.MinScale, p.MaxScale)

	t := Transform{}
	wantW := uniform(rng, sMin, sMax) * canvasW
	t.ScaleX = wantW / itemW
	if p.PreserveAspect {
		t.ScaleY = t.ScaleX
	} else {
		wantH := uniform(rng, sMin, sMax) * canvasH
		t.ScaleY = wantH / itemH
	}

	onW := t.ScaleX * itemW
	onH := t.ScaleY * itemH

	x0, x1 := normalizeAxis(p.MinX, p.MaxX, canvasW)
	y0, y1 := normalizeAxis(p.MinY, p.MaxY, canvasH)
	x0, x1 = clampRange(x0, x1, canvasW-onW)
	y0, y1 = clampRange(y0, y1, canvasH-onH)

	t.X = uniform(rng, x0, x1)
	t.Y = uniform(rng, y0, y1)

	sampleRotation(p, rng, &t)
	return t
}

func sampleRotation(p Params, rng *rand.Rand, t *Transform) {
	if p.DisableRotation {
		return
	}
	rMin, rMax := p.MinRotation, p.MaxRotation
	if rMin > rMax {
		rMin, rMax = rMax, rMin
	}
	t.Rotation = uniform(rng, rMin, rMax)
	t.HasRotation = true
}

// normalizeAxis resolves one position axis: unset (<= 0) bounds default to
// [0, canvas], then an inverted pair is swapped.
func normalizeAxis(min, max, canvas float64) (float64, float64) {
	lo := 0.0
	if min > 0 {
		lo = min
	}
	hi := canvas
	if max > 0 {
		hi = max
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// normalizeScale converts percent bounds to factors and swaps an inverted pair.
func normalizeScale(min, max float64) (float64, float64) {
	lo, hi := min/100, max/100
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// clampRange restricts [lo, hi] to [0, limit]. A limit below zero (element
// larger than the canvas) collapses the range to [0, 0].
func clampRange(lo, hi, limit float64) (float64, float64) {
	if limit < 0 {
		limit = 0
	}
	if lo > limit {
		lo = limit
	}
	if hi > limit {
		hi = limit
	}
	return lo, hi
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
