package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Meridian-SCM/Segment/internal/events"
	"github.com/Meridian-SCM/Segment/internal/registry"
	"github.com/Meridian-SCM/Segment/internal/scoring"
)

type ProfilesHandler struct {
	registry *registry.Registry
	events   events.Client
}

func NewProfilesHandler(reg *registry.Registry, ev events.Client) *ProfilesHandler {
	return &ProfilesHandler{registry: reg, events: ev}
}

func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	units := h.registry.BusinessUnits()
	profiles := make([]scoring.Profile, 0, len(units))
	for _, bu := range units {
		if p, err := h.registry.Get(bu); err == nil {
			profiles = append(profiles, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	bu := chi.URLParam(r, "bu")
	if !h.registry.Has(bu) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no profile for business unit"})
		return
	}
	p, err := h.registry.Get(bu)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Put handles PUT /api/v1/profiles/{bu}: an atomic replace of one business
// unit's profile. The new version must pass validation before it is
// installed; scoring passes in flight keep their snapshot.
func (h *ProfilesHandler) Put(w http.ResponseWriter, r *http.Request) {
	bu := chi.URLParam(r, "bu")

	var p scoring.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	p.BusinessUnit = bu

	if result := registry.ValidateProfile(p); !result.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	if err := h.registry.Put(p); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectProfileUpdated(bu), events.ProfileUpdatedEvent{
			BusinessUnit: bu,
			Version:      p.Version,
			UpdatedBy:    r.Header.Get("X-Client-ID"),
		})
	}
	writeJSON(w, http.StatusOK, p)
}

// Validate handles POST /api/v1/profiles/validate: a dry-run check that
// returns every violation without installing anything.
func (h *ProfilesHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var p scoring.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, registry.ValidateProfile(p))
}
