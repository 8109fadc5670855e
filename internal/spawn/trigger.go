package spawn

import (
	"context"
	"log"
	"time"
)

// AutoTrigger spawns a batch on a fixed cadence until ctx is cancelled.
// This is the local trigger path; it goes through the same admission
// control as remote requests. A non-positive interval disables it.
func (o *Orchestrator) AutoTrigger(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	log.Printf("spawn: auto trigger every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Spawn(o.Settings())
		}
	}
}
