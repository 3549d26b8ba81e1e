package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Meridian-SCM/Segment/internal/segment"
	"github.com/Meridian-SCM/Segment/internal/store"
)

type ReportsHandler struct {
	store   store.Store
	targets segment.Targets
}

func NewReportsHandler(s store.Store, targets segment.Targets) *ReportsHandler {
	return &ReportsHandler{store: s, targets: targets}
}

// Distribution handles GET /api/v1/reports/distribution. It recomputes the
// report from a run's score rows (the latest run when run_id is omitted), so
// the current governance targets apply even to historical runs.
func (h *ReportsHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	outcomes, ok := h.runOutcomes(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, segment.ValidateDistribution(outcomes, h.targets))
}

// Concentration handles GET /api/v1/reports/concentration: the spend
// concentration view over a run's classified population.
func (h *ReportsHandler) Concentration(w http.ResponseWriter, r *http.Request) {
	outcomes, ok := h.runOutcomes(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, segment.SpendConcentration(outcomes))
}

func (h *ReportsHandler) runOutcomes(w http.ResponseWriter, r *http.Request) ([]segment.Outcome, bool) {
	var runID uuid.UUID
	if v := r.URL.Query().Get("run_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run_id"})
			return nil, false
		}
		runID = id
	} else {
		runs, err := h.store.ListRuns(r.Context(), 1)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return nil, false
		}
		if len(runs) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no evaluation runs"})
			return nil, false
		}
		runID = runs[0].ID
	}

	scores, err := h.store.ListScores(r.Context(), store.ScoreFilter{RunID: &runID, Limit: 100000})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if len(scores) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no scores for run"})
		return nil, false
	}

	outcomes := make([]segment.Outcome, 0, len(scores))
	for _, sc := range scores {
		o := segment.Outcome{
			SupplierID:   sc.SupplierID,
			BusinessUnit: sc.BusinessUnit,
			Value:        sc.Value,
			Tier:         segment.Tier(sc.Tier),
		}
		h.enrich(r.Context(), &o)
		outcomes = append(outcomes, o)
	}
	return outcomes, true
}

// enrich joins the supplier's spend and risk attributes onto the outcome for
// the concentration and driver views. Missing suppliers degrade to zero spend
// rather than failing the report.
func (h *ReportsHandler) enrich(ctx context.Context, o *segment.Outcome) {
	rec, err := h.store.GetSupplier(ctx, o.BusinessUnit, o.SupplierID)
	if err != nil || rec == nil {
		return
	}
	o.AnnualSpend = rec.AnnualSpend
	o.RiskScore = rec.RiskScore
}
