package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"customerdash/backend/models"
	"customerdash/backend/services"
	"customerdash/backend/store"
)

// CustomerHandler serves the customer collection.
type CustomerHandler struct {
	store   *store.Store
	filters *services.FilterService
	logger  *zap.Logger
}

// NewCustomerHandler creates a customer handler. filters may be nil, in
// which case filterId is ignored.
func NewCustomerHandler(st *store.Store, filters *services.FilterService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{store: st, filters: filters, logger: nopIfNil(logger)}
}

// List handles GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	spec, err := resolveFilter(r, h.filters)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.FilterCustomers(h.store.Records(), spec))
}

// Search handles POST /customers/search with a JSON FilterSpec body.
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	var spec models.FilterSpec
	if err := decodeJSON(r, &spec); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.FilterCustomers(h.store.Records(), spec))
}

// Get handles GET /customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		fail(w, h.logger, r, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Add handles POST /customers and answers with the updated collection.
func (h *CustomerHandler) Add(w http.ResponseWriter, r *http.Request) {
	var in models.CustomerInput
	if err := decodeJSON(r, &in); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	records, err := h.store.Add(r.Context(), in)
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

// AddBatch handles POST /customers/batch
func (h *CustomerHandler) AddBatch(w http.ResponseWriter, r *http.Request) {
	var inputs []models.CustomerInput
	if err := decodeJSON(r, &inputs); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	records, err := h.store.AddBatch(r.Context(), inputs)
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, records)
}

// Edit handles PUT and PATCH /customers/{id}
func (h *CustomerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var patch models.CustomerPatch
	if err := decodeJSON(r, &patch); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	updated, err := h.store.Edit(r.Context(), mux.Vars(r)["id"], patch)
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Remove handles DELETE /customers/{id}. Removing an unknown id is not an
// error.
func (h *CustomerHandler) Remove(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Remove(r.Context(), mux.Vars(r)["id"])
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

type removeManyRequest struct {
	IDs []string `json:"ids"`
}

// RemoveMany handles DELETE /customers with {"ids": [...]}.
func (h *CustomerHandler) RemoveMany(w http.ResponseWriter, r *http.Request) {
	var req removeManyRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if len(req.IDs) == 0 {
		fail(w, h.logger, r, fmt.Errorf("%w: ids is required", errBadBody))
		return
	}
	n, err := h.store.RemoveMany(r.Context(), req.IDs)
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// Copy handles POST /customers/{id}/copy
func (h *CustomerHandler) Copy(w http.ResponseWriter, r *http.Request) {
	dup, err := h.store.Copy(r.Context(), mux.Vars(r)["id"])
	if err = absorbWarning(w, err); err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}
