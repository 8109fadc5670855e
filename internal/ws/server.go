// Package ws is the remote control gateway: a websocket request/response
// channel for external controllers plus a small HTTP API. All operations
// route through the registered orchestrator, so remote and local triggers
// share the same admission control.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/random-media/backend/internal/metrics"
	"github.com/random-media/backend/internal/spawn"
	"github.com/random-media/backend/internal/stats"
)

type Server struct {
	mu   sync.RWMutex
	orch *spawn.Orchestrator

	broadcaster *Broadcaster
	metrics     *metrics.Metrics
	stats       *stats.Tracker
	started     time.Time
}

// NewServer creates a gateway with no orchestrator registered yet. metrics
// and statsTracker may be nil.
func NewServer(broadcaster *Broadcaster, m *metrics.Metrics, statsTracker *stats.Tracker) *Server {
	return &Server{
		broadcaster: broadcaster,
		metrics:     m,
		stats:       statsTracker,
		started:     time.Now(),
	}
}

// RegisterOrchestrator installs the orchestrator remote requests act on.
// Serving requests before registration yields "not initialized" responses,
// never transport failures.
func (s *Server) RegisterOrchestrator(o *spawn.Orchestrator) {
	s.mu.Lock()
	s.orch = o
	s.mu.Unlock()
}

// UnregisterOrchestrator clears the registration, e.g. during teardown.
func (s *Server) UnregisterOrchestrator() {
	s.mu.Lock()
	s.orch = nil
	s.mu.Unlock()
}

func (s *Server) current() *spawn.Orchestrator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orch
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/spawn", s.handleOp(OpSpawn))
	mux.HandleFunc("/api/reload", s.handleOp(OpReloadInventory))
	mux.HandleFunc("/api/clear", s.handleOp(OpClear))
	mux.HandleFunc("/api/active", s.handleActive)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
}

// dispatch executes one remote operation. Every failure comes back as a
// structured error response; nothing crosses the transport unshaped.
func (s *Server) dispatch(req Request) Response {
	orch := s.current()
	if orch == nil {
		return errorResponse(req.ID, "not initialized")
	}

	switch req.Op {
	case OpSpawn:
		res := orch.Spawn(orch.Settings())
		resp := Response{
			Status:      "ok",
			ActiveCount: intPtr(res.ActiveCount),
			ID:          req.ID,
		}
		if res.Status != "ok" {
			resp.Message = res.Status
		}
		return resp

	case OpReloadInventory:
		n := orch.Inventory().Reload()
		if s.metrics != nil {
			s.metrics.SetInventorySize(n)
		}
		return Response{Status: "ok", FileCount: intPtr(n), ID: req.ID}

	case OpClear:
		removed := orch.Clear()
		return Response{
			Status:      "ok",
			Removed:     intPtr(removed),
			ActiveCount: intPtr(orch.ActiveCount()),
			ID:          req.ID,
		}

	default:
		return errorResponse(req.ID, fmt.Sprintf("unknown op %q", req.Op))
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		return
	}

	log.Printf("ws: client connected: %s", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)
	s.sendSnapshot(c)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			log.Printf("ws: client disconnected: %s", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var req Request
			resp := Response{}
			if err := json.Unmarshal(data, &req); err != nil {
				resp = errorResponse("", "malformed request")
			} else {
				resp = s.dispatch(req)
			}

			out, err := json.Marshal(resp)
			if err != nil {
				log.Printf("ws: response marshal error: %v", err)
				continue
			}
			if !c.enqueue(out) {
				return
			}
		}
	}()
}

// sendSnapshot pushes the current active set to a newly connected client.
func (s *Server) sendSnapshot(c *client) {
	orch := s.current()
	if orch == nil {
		return
	}
	data, err := json.Marshal(Message{
		Type:    MsgSnapshot,
		Payload: SnapshotPayload{Active: activePayload(orch)},
	})
	if err != nil {
		return
	}
	c.enqueue(data)
}

// handleOp adapts one gateway operation to HTTP POST.
func (s *Server) handleOp(op Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, s.dispatch(Request{Op: op}))
	}
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	orch := s.current()
	if orch == nil {
		writeJSON(w, errorResponse("", "not initialized"))
		return
	}
	writeJSON(w, activePayload(orch))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.Error(w, "stats not available", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.stats.Stats())
}

func activePayload(orch *spawn.Orchestrator) []ElementPayload {
	snap := orch.Active()
	out := make([]ElementPayload, 0, len(snap))
	for _, el := range snap {
		out = append(out, ElementPayload{
			ID:        el.ID,
			Path:      el.Path,
			CreatedAt: el.CreatedAt,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}
	if host == r.Host {
		return true
	}
	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}
	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("ws: gateway listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
