package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Meridian-SCM/Segment/internal/scoring"
	"github.com/Meridian-SCM/Segment/internal/store"
)

type SuppliersHandler struct {
	store store.Store
}

func NewSuppliersHandler(s store.Store) *SuppliersHandler {
	return &SuppliersHandler{store: s}
}

type UpsertSuppliersRequest struct {
	Suppliers []store.SupplierRecord `json:"suppliers"`
}

type UpsertSuppliersResponse struct {
	Accepted int              `json:"accepted"`
	Rejected []RejectedRecord `json:"rejected,omitempty"`
}

type RejectedRecord struct {
	SupplierID   string `json:"supplier_id"`
	BusinessUnit string `json:"business_unit"`
	Error        string `json:"error"`
}

// Upsert handles POST /api/v1/suppliers. Records are validated on the way in;
// a rejected record never blocks the rest of the payload.
func (h *SuppliersHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertSuppliersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Suppliers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "suppliers required"})
		return
	}

	resp := UpsertSuppliersResponse{}
	for i := range req.Suppliers {
		rec := &req.Suppliers[i]
		if rec.SupplierID == "" || rec.BusinessUnit == "" {
			resp.Rejected = append(resp.Rejected, RejectedRecord{
				SupplierID:   rec.SupplierID,
				BusinessUnit: rec.BusinessUnit,
				Error:        "supplier_id and business_unit required",
			})
			continue
		}
		if err := scoring.ValidateRecord(rec); err != nil {
			resp.Rejected = append(resp.Rejected, RejectedRecord{
				SupplierID:   rec.SupplierID,
				BusinessUnit: rec.BusinessUnit,
				Error:        err.Error(),
			})
			continue
		}
		if err := h.store.UpsertSupplier(r.Context(), rec); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp.Accepted++
	}

	status := http.StatusCreated
	if resp.Accepted == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.SupplierFilter{
		BusinessUnit: r.URL.Query().Get("business_unit"),
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

	suppliers, err := h.store.ListSuppliers(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"count":     len(suppliers),
	})
}

func (h *SuppliersHandler) Get(w http.ResponseWriter, r *http.Request) {
	bu := chi.URLParam(r, "bu")
	id := chi.URLParam(r, "id")

	rec, err := h.store.GetSupplier(r.Context(), bu, id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "supplier not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
