package api

import (
	"net/http"

	"github.com/reqlint/reqlint/internal/rules"
)

// GET /api/v1/rules (ids + summaries; read-only, no auth needed)
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	type R struct {
		ID              string `json:"id"`
		Summary         string `json:"summary"`
		Order           int    `json:"order"`
		DefaultSeverity string `json:"default_severity"`
	}
	var out []R
	for _, rr := range rules.List(rules.Settings{}) {
		out = append(out, R{
			ID: rr.ID, Summary: rr.Summary, Order: rr.Order,
			DefaultSeverity: string(rr.DefaultSeverity),
		})
	}
	// stable order already guaranteed by rules.List
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}
