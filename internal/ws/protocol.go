package ws

import "time"

// The remote control protocol runs over a single websocket connection.
// Each text frame from the client is a Request and is answered with a
// Response on the same connection. The server additionally pushes Message
// frames (event feed, initial snapshot); clients tell the two apart by the
// presence of the "status" field.

type Op string

const (
	OpSpawn           Op = "spawn"
	OpReloadInventory Op = "reload_inventory"
	OpClear           Op = "clear"
)

type Request struct {
	Op Op `json:"op"`
	// ID is echoed back on the response so clients can correlate
	// concurrent requests. Optional.
	ID string `json:"id,omitempty"`
}

type Response struct {
	Status      string `json:"status"` // "ok" or "error"
	Message     string `json:"message,omitempty"`
	ActiveCount *int   `json:"active_count,omitempty"`
	FileCount   *int   `json:"file_count,omitempty"`
	Removed     *int   `json:"removed,omitempty"`
	ID          string `json:"id,omitempty"`
}

func errorResponse(id, message string) Response {
	return Response{Status: "error", Message: message, ID: id}
}

func intPtr(n int) *int { return &n }

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgEvent    MessageType = "event"
)

type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventPayload mirrors one lifecycle event onto the feed.
type EventPayload struct {
	Event       string    `json:"event"` // spawned | failed | completed | cleared
	ElementID   string    `json:"element_id,omitempty"`
	Path        string    `json:"path,omitempty"`
	ActiveCount int       `json:"active_count"`
	Time        time.Time `json:"time"`
}

// ElementPayload is one active element in the snapshot and /api/active.
type ElementPayload struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

type SnapshotPayload struct {
	Active []ElementPayload `json:"active"`
}
