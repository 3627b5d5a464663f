package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventops/crewbadge/internal/credential"
	"github.com/eventops/crewbadge/internal/crew"
	"github.com/eventops/crewbadge/internal/metrics"
	"github.com/eventops/crewbadge/internal/render"
	"github.com/eventops/crewbadge/internal/store"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	dir       *store.Memory
	signer    *credential.Signer
	validator *credential.Validator
	renderer  *render.Renderer
	batch     *render.BatchRenderer
	mux       *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(dir *store.Memory, signer *credential.Signer, validator *credential.Validator, renderer *render.Renderer, batch *render.BatchRenderer) http.Handler {
	h := &Handler{
		dir:       dir,
		signer:    signer,
		validator: validator,
		renderer:  renderer,
		batch:     batch,
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /v1/crew", h.createCrewMember)
	h.mux.HandleFunc("GET /v1/crew/{id}", h.getCrewMember)
	h.mux.HandleFunc("PATCH /v1/crew/{id}/status", h.setCrewStatus)
	h.mux.HandleFunc("GET /v1/crew/{id}/badge", h.renderBadge)
	h.mux.HandleFunc("POST /v1/events", h.createEvent)
	h.mux.HandleFunc("GET /v1/events/{id}", h.getEvent)
	h.mux.HandleFunc("GET /v1/events/{id}/roster", h.renderRoster)
	h.mux.HandleFunc("POST /v1/events/{id}/badges/archive", h.renderArchive)
	h.mux.HandleFunc("POST /v1/credentials", h.issueCredential)
	h.mux.HandleFunc("POST /v1/credentials/validate", h.validateCredential)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/crew — register a crew member; badge number is assigned here.
func (h *Handler) createCrewMember(w http.ResponseWriter, r *http.Request) {
	var m crew.Member
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if m.FirstName == "" && m.LastName == "" {
		writeError(w, http.StatusBadRequest, "a name is required")
		return
	}
	if m.Role == "" {
		writeError(w, http.StatusBadRequest, "role is required")
		return
	}
	created := h.dir.CreateMember(m)
	writeJSON(w, http.StatusCreated, created)
}

// GET /v1/crew/{id}
func (h *Handler) getCrewMember(w http.ResponseWriter, r *http.Request) {
	m, ok := h.dir.CrewMember(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "crew member not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// PATCH /v1/crew/{id}/status — approval workflow lives outside the
// engine; this just records its outcome.
func (h *Handler) setCrewStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status crew.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	m, err := h.dir.SetStatus(r.PathValue("id"), req.Status, time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// POST /v1/events
func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var ev crew.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if ev.Name == "" {
		writeError(w, http.StatusBadRequest, "event name is required")
		return
	}
	if ev.EndDate.Before(ev.StartDate) {
		writeError(w, http.StatusBadRequest, "end_date must not precede start_date")
		return
	}
	created := h.dir.CreateEvent(ev)
	writeJSON(w, http.StatusCreated, created)
}

// GET /v1/events/{id}
func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.dir.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// POST /v1/credentials — issue a signed payload for an approved member.
func (h *Handler) issueCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CrewMemberID string `json:"crew_member_id"`
		EventID      string `json:"event_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	m, ok := h.dir.CrewMember(req.CrewMemberID)
	if !ok {
		writeError(w, http.StatusNotFound, "crew member not found")
		return
	}
	ev, ok := h.dir.Event(req.EventID)
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if m.Status != crew.StatusApproved {
		writeError(w, http.StatusConflict, "crew member is not approved")
		return
	}
	p, err := h.signer.Issue(m, ev, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	qrText, err := p.Encode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.CredentialsIssued.Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payload": p,
		"qr_text": qrText,
	})
}

// POST /v1/credentials/validate — a scan always resolves to an outcome
// tag; the HTTP status is 200 for every expected result.
func (h *Handler) validateCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRData string `json:"qr_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	res := h.validator.Validate(req.QRData)
	metrics.Validations.WithLabelValues(string(res.Outcome)).Inc()
	writeJSON(w, http.StatusOK, res)
}

// GET /v1/crew/{id}/badge?event=<id> — single badge PDF.
func (h *Handler) renderBadge(w http.ResponseWriter, r *http.Request) {
	m, ok := h.dir.CrewMember(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "crew member not found")
		return
	}
	ev, ok := h.dir.Event(r.URL.Query().Get("event"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	badge := &render.Badge{Member: m, Event: ev}
	if m.Status == crew.StatusApproved {
		if p, err := h.signer.Issue(m, ev, time.Now()); err == nil {
			badge.QRText, _ = p.Encode()
		}
	}
	out, err := h.renderer.Render(r.Context(), badge)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeDocument(w, "application/pdf", m.BadgeNumber+".pdf", out)
}

// GET /v1/events/{id}/roster?company=<name> — roster PDF.
func (h *Handler) renderRoster(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.dir.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	out, err := h.renderer.RenderRoster(h.dir.Members(), ev, render.RosterOptions{
		Company: r.URL.Query().Get("company"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeDocument(w, "application/pdf", "roster_"+ev.ID+".pdf", out)
}

// POST /v1/events/{id}/badges/archive — ZIP of all badges, rendered
// through the batch pool.
func (h *Handler) renderArchive(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.dir.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	members := h.dir.Members()
	if len(members) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no crew members registered")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()
	data, rendered, err := h.batch.Archive(ctx, members, ev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("X-Badges-Rendered", fmt.Sprintf("%d", rendered))
	writeDocument(w, "application/zip", "badges_"+ev.ID+".zip", data)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the batch render queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.batch.QueueUtilization()
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
