package gateway

import (
	"net/http"
	"time"

	"github.com/charank/mikasa/internal/memory/sqlite"
)

// StatusResponse is the JSON response for GET /status: store
// reachability, row counts, and basic service identity.
type StatusResponse struct {
	Status        string        `json:"status"` // "ok" or "degraded"
	UptimeSeconds int64         `json:"uptime_seconds"`
	TurnsServed   int64         `json:"turns_served"`
	Model         string        `json:"model"`
	MemoryDB      sqlite.DBStat `json:"memory_db"`
	SessionsDB    sqlite.DBStat `json:"sessions_db"`
}

// handleStatus probes both databases and reports diagnostics. Probe
// failures show up in the body, not as an HTTP error.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memStat, sessStat := g.store.Stats(r.Context())

		resp := StatusResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(g.startedAt) / time.Second),
			TurnsServed:   g.turnsServed.Load(),
			Model:         g.modelName,
			MemoryDB:      memStat,
			SessionsDB:    sessStat,
		}
		if !memStat.Accessible || !sessStat.Accessible {
			resp.Status = "degraded"
		}

		respondJSON(w, http.StatusOK, resp)
	}
}
