/*
handlers.go - HTTP API handlers for the estimation service

PURPOSE:
  Exposes the calculation engine and project persistence via REST.
  Handles HTTP request/response and JSON serialization, then delegates
  to the estimator.

ENDPOINTS:
  Projects:
    GET    /api/projects                 List all projects
    POST   /api/projects                 Create/replace a project
    GET    /api/projects/{id}            Get a project
    PUT    /api/projects/{id}            Update a project
    DELETE /api/projects/{id}            Delete a project

  Computed views (read-only, derived per request):
    GET    /api/projects/{id}/totals     Project totals with adjustments
    GET    /api/projects/{id}/breakdowns Per-category rollups
    GET    /api/projects/{id}/payments   Payment reconciliation

  Ad hoc:
    POST   /api/estimate                 Compute over inline data
    GET    /api/worktypes                Work-type catalog entries
    GET    /api/status                   Service status

ERROR HANDLING:
  Handler-level errors (bad JSON, missing project) map to HTTP status
  codes. Calculation problems never do: the engine returns same-shape
  results carrying diagnostics, and those are passed through as 200s.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warp/estimate-engine/catalog"
	"github.com/warp/estimate-engine/estimator"
	"github.com/warp/estimate-engine/store"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   store.ProjectStore
	Catalog *catalog.Catalog
	Options estimator.Options
}

// NewHandler creates a handler backed by the given store. Engines are
// constructed per request; the work-type catalog and engine options are
// shared.
func NewHandler(s store.ProjectStore) *Handler {
	cat := catalog.New()
	return &Handler{
		Store:   s,
		Catalog: cat,
		Options: estimator.Options{Catalog: cat, EnableCaching: true},
	}
}

func (h *Handler) engine(categories []estimator.Category, settings *estimator.Settings) *estimator.Engine {
	return estimator.NewEngine(categories, settings, h.Options)
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns all projects.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

// CreateProject creates or replaces a project.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Project id is required", nil)
		return
	}

	p := store.Project{
		ID:         req.ID,
		Name:       req.Name,
		Categories: req.Categories,
		Settings:   req.Settings,
	}
	if err := h.Store.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProjectDTO(p))
}

// UpdateProject replaces a project by path id.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, estimator.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "Project not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return
	}

	var req SaveProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := store.Project{
		ID:         id,
		Name:       req.Name,
		Categories: req.Categories,
		Settings:   req.Settings,
		CreatedAt:  existing.CreatedAt,
	}
	if err := h.Store.Save(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(p))
}

// DeleteProject removes a project.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// COMPUTED VIEWS
// =============================================================================

// GetTotals computes project totals with the full adjustment chain.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	engine := h.engine(p.Categories, &p.Settings)
	writeJSON(w, http.StatusOK, engine.Totals())
}

// GetBreakdowns computes per-category pre-adjustment rollups.
func (h *Handler) GetBreakdowns(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	engine := h.engine(p.Categories, &p.Settings)
	writeJSON(w, http.StatusOK, engine.CategoryBreakdowns())
}

// GetPayments reconciles the project's payment ledger.
func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	engine := h.engine(p.Categories, &p.Settings)
	writeJSON(w, http.StatusOK, engine.PaymentDetails())
}

// Estimate computes all three views over inline data.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	engine := h.engine(req.Categories, req.Settings)
	writeJSON(w, http.StatusOK, EstimateResponse{
		Totals:     engine.Totals(),
		Breakdowns: engine.CategoryBreakdowns(),
		Payments:   engine.PaymentDetails(),
	})
}

// ListWorkTypes returns the work-type catalog.
func (h *Handler) ListWorkTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Catalog.Entries())
}

// GetStatus reports service health and engine configuration.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	engine := h.engine(nil, &estimator.Settings{})
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "estimate-engine",
		"engine":  engine.Status(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadProject(w http.ResponseWriter, r *http.Request) (*store.Project, bool) {
	id := chi.URLParam(r, "id")
	p, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, estimator.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "Project not found", nil)
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to load project", err)
		return nil, false
	}
	return p, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
