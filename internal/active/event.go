package active

import "time"

// EventType classifies element lifecycle events.
type EventType int

const (
	EventSpawned   EventType = iota // element created and registered
	EventFailed                     // creation or placement failed
	EventCompleted                  // playback finished, element torn down
	EventCleared                    // element removed by an explicit clear
)

var eventNames = map[EventType]string{
	EventSpawned:   "spawned",
	EventFailed:    "failed",
	EventCompleted: "completed",
	EventCleared:   "cleared",
}

func (e EventType) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "unknown"
}

// Event carries one lifecycle notification to observers (stats, gateway
// broadcast). ActiveCount is the tracker count at event time.
type Event struct {
	Type        EventType
	ElementID   string
	Path        string
	ActiveCount int
	Time        time.Time
}
