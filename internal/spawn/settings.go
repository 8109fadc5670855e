package spawn

import (
	"github.com/random-media/backend/internal/config"
	"github.com/random-media/backend/internal/placement"
)

// Settings is the immutable per-trigger snapshot of the spawn configuration.
// Every trigger (remote or local) passes a Settings value through the
// orchestrator, so a concurrent reconfiguration never changes a batch
// halfway through.
type Settings struct {
	Transform       placement.Params
	RandomTransform bool
	FitToCanvas     bool
	HideOnEnd       bool
	Volume          float64
	SpawnCount      int
}

// SettingsFromConfig converts the configuration surface into a trigger
// snapshot. The batch size is clamped to at least one.
func SettingsFromConfig(c config.SpawnConfig) Settings {
	count := c.SpawnCount
	if count < 1 {
		count = 1
	}
	return Settings{
		Transform: placement.Params{
			MinScale:        c.MinScale,
			MaxScale:        c.MaxScale,
			PreserveAspect:  c.PreserveAspect,
			MinRotation:     c.MinRotation,
			MaxRotation:     c.MaxRotation,
			DisableRotation: c.DisableRotation,
			MinX:            float64(c.MinX),
			MinY:            float64(c.MinY),
			MaxX:            float64(c.MaxX),
			MaxY:            float64(c.MaxY),
		},
		RandomTransform: c.RandomTransform,
		FitToCanvas:     c.FitToCanvas,
		HideOnEnd:       c.HideOnEnd,
		Volume:          c.Volume,
		SpawnCount:      count,
	}
}
