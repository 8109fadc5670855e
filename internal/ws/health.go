package ws

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HealthPayload is the /api/health response. Process figures come from the
// running gateway process itself; host figures describe the whole machine.
type HealthPayload struct {
	Status             string  `json:"status"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	ActiveCount        int     `json:"active_count"`
	InventoryFiles     int     `json:"inventory_files"`
	ProcessRSSBytes    uint64  `json:"process_rss_bytes,omitempty"`
	ProcessCPUPercent  float64 `json:"process_cpu_percent,omitempty"`
	HostMemUsedPercent float64 `json:"host_mem_used_percent,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := HealthPayload{
		Status:        "ok",
		UptimeSeconds: time.Since(s.started).Seconds(),
	}
	if orch := s.current(); orch != nil {
		payload.ActiveCount = orch.ActiveCount()
		payload.InventoryFiles = orch.Inventory().Len()
	} else {
		payload.Status = "degraded"
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			payload.ProcessRSSBytes = info.RSS
		}
		if pct, err := proc.CPUPercent(); err == nil {
			payload.ProcessCPUPercent = pct
		}
	} else {
		log.Printf("ws: health process lookup failed: %v", err)
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		payload.HostMemUsedPercent = vm.UsedPercent
	}

	writeJSON(w, payload)
}
