package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Meridian-SCM/Segment/internal/registry"
	"github.com/Meridian-SCM/Segment/internal/scoring"
	"github.com/Meridian-SCM/Segment/internal/store"
)

type ExplainHandler struct {
	store    store.Store
	registry *registry.Registry
	calc     *scoring.Calculator
}

func NewExplainHandler(s store.Store, reg *registry.Registry) *ExplainHandler {
	return &ExplainHandler{store: s, registry: reg, calc: scoring.NewCalculator()}
}

// Explain returns a supplier's latest score with its component breakdown and,
// when the raw record is still available, the per-criterion sensitivity view.
// GET /api/v1/scoring/explain/{bu}/{id}
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	bu := chi.URLParam(r, "bu")
	id := chi.URLParam(r, "id")

	score, err := h.store.GetLatestScore(r.Context(), bu, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if score == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no score for supplier"})
		return
	}

	resp := map[string]interface{}{
		"supplier_id":         score.SupplierID,
		"business_unit":       score.BusinessUnit,
		"run_id":              score.RunID,
		"value":               score.Value,
		"tier":                score.Tier,
		"exit_override":       score.ExitOverride,
		"profile_version":     score.ProfileVersion,
		"component_breakdown": score.Breakdown,
	}

	// Sensitivity uses the current record and profile, which may have moved
	// on since the score was computed; the breakdown above stays pinned to
	// the run.
	rec, err := h.store.GetSupplier(r.Context(), bu, id)
	if err == nil && rec != nil {
		if profile, perr := h.registry.Get(bu); perr == nil {
			if deltas, serr := h.calc.Sensitivity(rec, profile); serr == nil {
				resp["sensitivity"] = deltas
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
