package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Meridian-SCM/Segment/internal/evaluator"
	"github.com/Meridian-SCM/Segment/internal/store"
)

type EvaluationsHandler struct {
	store     store.Store
	evaluator *evaluator.Evaluator
}

func NewEvaluationsHandler(s store.Store, e *evaluator.Evaluator) *EvaluationsHandler {
	return &EvaluationsHandler{store: s, evaluator: e}
}

type CreateEvaluationRequest struct {
	// BusinessUnit restricts the run to one unit; empty means all stored
	// suppliers.
	BusinessUnit string `json:"business_unit,omitempty"`

	// Records, when present, are scored directly instead of the stored base.
	Records []store.SupplierRecord `json:"records,omitempty"`
}

// Create handles POST /api/v1/evaluations: it runs a batch synchronously and
// returns the run summary with per-record failures.
func (h *EvaluationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	var result *evaluator.RunResult
	var err error
	if len(req.Records) > 0 {
		records := make([]*store.SupplierRecord, len(req.Records))
		for i := range req.Records {
			records[i] = &req.Records[i]
		}
		result, err = h.evaluator.Run(r.Context(), records)
	} else {
		result, err = h.evaluator.RunStored(r.Context(), req.BusinessUnit)
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"run":    result.Run,
		"report": result.Report,
	})
}

func (h *EvaluationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

func (h *EvaluationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *EvaluationsHandler) Scores(w http.ResponseWriter, r *http.Request) {
	filter, ok := scoreFilterFromQuery(w, r)
	if !ok {
		return
	}
	scores, err := h.store.ListScores(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores": scores,
		"count":  len(scores),
	})
}

type TopSupplier struct {
	Rank         int     `json:"rank"`
	SupplierID   string  `json:"supplier_id"`
	BusinessUnit string  `json:"business_unit"`
	Value        float64 `json:"value"`
	Tier         string  `json:"tier"`
}

// Top handles GET /api/v1/scores/top: the top-N ranking by score value.
// Displayed values are rounded to two decimals.
func (h *EvaluationsHandler) Top(w http.ResponseWriter, r *http.Request) {
	filter, ok := scoreFilterFromQuery(w, r)
	if !ok {
		return
	}
	filter.Limit = 20
	if v := r.URL.Query().Get("n"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	scores, err := h.store.ListScores(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	top := make([]TopSupplier, 0, len(scores))
	for i, sc := range scores {
		top = append(top, TopSupplier{
			Rank:         i + 1,
			SupplierID:   sc.SupplierID,
			BusinessUnit: sc.BusinessUnit,
			Value:        math.Round(sc.Value*100) / 100,
			Tier:         sc.Tier,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"top": top})
}

func scoreFilterFromQuery(w http.ResponseWriter, r *http.Request) (store.ScoreFilter, bool) {
	filter := store.ScoreFilter{
		BusinessUnit: r.URL.Query().Get("business_unit"),
		Tier:         r.URL.Query().Get("tier"),
	}
	if v := r.URL.Query().Get("run_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run_id"})
			return filter, false
		}
		filter.RunID = &id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	return filter, true
}
