package api

import (
	"net/http"
	"time"
)

// StatsProvider reports a snapshot of the service state.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler creates a new stats handler. A nil provider yields an
// object holding only the timestamp.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, now: time.Now}
}

// HandleStats writes the provider's stats stamped with generated_at.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]interface{})
	if h.provider != nil {
		for k, v := range h.provider.GetStats() {
			out[k] = v
		}
	}
	out["generated_at"] = h.now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, out)
}
