package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"customerdash/backend/middleware"
	"customerdash/backend/models"
	"customerdash/backend/services"
)

// FilterHandler serves saved filters.
type FilterHandler struct {
	filters *services.FilterService
	logger  *zap.Logger
}

func NewFilterHandler(filters *services.FilterService, logger *zap.Logger) *FilterHandler {
	return &FilterHandler{filters: filters, logger: nopIfNil(logger)}
}

type savedFilterRequest struct {
	Name      string            `json:"name"`
	Spec      models.FilterSpec `json:"spec"`
	IsDefault bool              `json:"isDefault"`
}

func (req savedFilterRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", errBadBody)
	}
	return nil
}

// List handles GET /filters
func (h *FilterHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := h.filters.List(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

// Create handles POST /filters
func (h *FilterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req savedFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	f, err := h.filters.Create(r.Context(), middleware.GetUserIDFromContext(r), req.Name, req.Spec, req.IsDefault)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// Get handles GET /filters/{id}
func (h *FilterHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.filters.Get(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"])
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Default handles GET /filters/default
func (h *FilterHandler) Default(w http.ResponseWriter, r *http.Request) {
	f, err := h.filters.Default(r.Context(), middleware.GetUserIDFromContext(r))
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Update handles PUT /filters/{id}
func (h *FilterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req savedFilterRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if err := req.validate(); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	f, err := h.filters.Update(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"], req.Name, req.Spec, req.IsDefault)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Delete handles DELETE /filters/{id}
func (h *FilterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.filters.Delete(r.Context(), middleware.GetUserIDFromContext(r), mux.Vars(r)["id"]); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
