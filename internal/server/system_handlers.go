package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/di"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers handles health and status endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	container   *di.Container
	startupTime time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, container *di.Container) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		container:   container,
		startupTime: time.Now(),
	}
}

// DatabaseStatus reports one database file
type DatabaseStatus struct {
	Name      string `json:"name"`
	Profile   string `json:"profile"`
	Healthy   bool   `json:"healthy"`
	SizeBytes int64  `json:"sizeBytes"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string           `json:"status"`
	Uptime    string           `json:"uptime"`
	CPUPct    float64          `json:"cpuPercent"`
	MemPct    float64          `json:"memoryPercent"`
	Databases []DatabaseStatus `json:"databases"`
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	SyncEnabled     bool             `json:"syncEnabled"`
	QuotesEnabled   bool             `json:"quotesEnabled"`
	StartedAt       time.Time        `json:"startedAt"`
	UptimeSeconds   int64            `json:"uptimeSeconds"`
	MemoryUsedBytes uint64           `json:"memoryUsedBytes"`
	MemoryTotal     uint64           `json:"memoryTotalBytes"`
	Databases       []DatabaseStatus `json:"databases"`
}

// HandleHealth reports liveness with database pings and host load.
// Returns 503 when a database does not answer.
// GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	databases := h.databaseStatus(ctx)
	cpuPct, memPct := h.hostLoad()

	resp := HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(h.startupTime).Round(time.Second).String(),
		CPUPct:    cpuPct,
		MemPct:    memPct,
		Databases: databases,
	}

	status := http.StatusOK
	for _, db := range databases {
		if !db.Healthy {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	utils.WriteJSON(w, h.log, status, resp)
}

// HandleSystemStatus reports configuration and resource usage
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatusResponse{
		SyncEnabled:   h.container.Reconciler != nil && h.container.Reconciler.Enabled(),
		QuotesEnabled: h.container.Quotes != nil,
		StartedAt:     h.startupTime.UTC(),
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		Databases:     h.databaseStatus(r.Context()),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryUsedBytes = vm.Used
		resp.MemoryTotal = vm.Total
	} else {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
	}

	utils.WriteJSON(w, h.log, http.StatusOK, resp)
}

func (h *SystemHandlers) databaseStatus(ctx context.Context) []DatabaseStatus {
	out := make([]DatabaseStatus, 0, 2)
	for _, db := range []*database.DB{h.container.TradebookDB, h.container.ClientDataDB} {
		if db == nil {
			continue
		}
		status := DatabaseStatus{Name: db.Name(), Profile: string(db.Profile()), Healthy: true}
		if err := db.QuickCheck(ctx); err != nil {
			status.Healthy = false
			status.Error = err.Error()
		}
		if info, err := os.Stat(db.Path()); err == nil {
			status.SizeBytes = info.Size()
		}
		out = append(out, status)
	}
	return out
}

// hostLoad returns CPU and memory usage percentages
func (h *SystemHandlers) hostLoad() (float64, float64) {
	// Short sample window keeps the health probe fast
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
