package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"customerdash/backend/models"
	"customerdash/backend/services"
	"customerdash/backend/store"
)

// ReportHandler serves the dashboard cards and charts. Every report
// honours the same filter parameters as GET /customers.
type ReportHandler struct {
	store   *store.Store
	filters *services.FilterService
	now     func() time.Time
	logger  *zap.Logger
}

func NewReportHandler(st *store.Store, filters *services.FilterService, now func() time.Time, logger *zap.Logger) *ReportHandler {
	if now == nil {
		now = time.Now
	}
	return &ReportHandler{store: st, filters: filters, now: now, logger: nopIfNil(logger)}
}

func (h *ReportHandler) filtered(r *http.Request) ([]models.Customer, error) {
	spec, err := resolveFilter(r, h.filters)
	if err != nil {
		return nil, err
	}
	return services.FilterCustomers(h.store.Records(), spec), nil
}

// Summary handles GET /reports/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	records, err := h.filtered(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.BuildSummary(records, h.now()))
}

// GroupCount handles GET /reports/group-count?field=
func (h *ReportHandler) GroupCount(w http.ResponseWriter, r *http.Request) {
	field, err := services.ParseField(r.URL.Query().Get("field"))
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	records, err := h.filtered(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if field == services.FieldDivision {
		writeJSON(w, http.StatusOK, services.DivisionDistribution(records))
		return
	}
	writeJSON(w, http.StatusOK, services.GroupCount(records, field))
}

// GroupMedian handles GET /reports/group-median?field=&value=
func (h *ReportHandler) GroupMedian(w http.ResponseWriter, r *http.Request) {
	h.groupValues(w, r, services.GroupMedian)
}

// GroupMax handles GET /reports/group-max?field=&value=
func (h *ReportHandler) GroupMax(w http.ResponseWriter, r *http.Request) {
	h.groupValues(w, r, services.GroupMax)
}

func (h *ReportHandler) groupValues(w http.ResponseWriter, r *http.Request,
	reduce func([]models.Customer, services.Field, services.Field) []models.GroupValue) {
	q := r.URL.Query()
	field, err := services.ParseField(q.Get("field"))
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	value, err := services.ParseField(q.Get("value"))
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	if !value.Numeric() {
		writeError(w, http.StatusBadRequest, "value must be a numeric field (age or income)")
		return
	}
	records, err := h.filtered(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reduce(records, field, value))
}

// MaritalSplit handles GET /reports/marital-split
func (h *ReportHandler) MaritalSplit(w http.ResponseWriter, r *http.Request) {
	records, err := h.filtered(r)
	if err != nil {
		fail(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.MaritalSplitByDivision(records))
}
