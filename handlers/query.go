package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"customerdash/backend/middleware"
	"customerdash/backend/models"
	"customerdash/backend/services"
)

var errBadQuery = errors.New("invalid query")

// ParseFilterQuery builds a FilterSpec from URL query parameters. Multi
// value fields accept repeated parameters or comma separated lists. A
// range needs at least one bound; a missing bound is open.
func ParseFilterQuery(q url.Values) (models.FilterSpec, error) {
	spec := models.FilterSpec{
		CustomerName:  strings.TrimSpace(q.Get("name")),
		Division:      selection(q["division"]),
		Gender:        selection(q["gender"]),
		MaritalStatus: selection(q["maritalStatus"]),
	}

	var err error
	if spec.AgeRange, err = rangeParam(q, "ageMin", "ageMax"); err != nil {
		return models.FilterSpec{}, err
	}
	if spec.IncomeRange, err = rangeParam(q, "incomeMin", "incomeMax"); err != nil {
		return models.FilterSpec{}, err
	}
	return spec, nil
}

func selection(values []string) models.Selection {
	var out models.Selection
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func rangeParam(q url.Values, minKey, maxKey string) (*models.Range, error) {
	minRaw, maxRaw := strings.TrimSpace(q.Get(minKey)), strings.TrimSpace(q.Get(maxKey))
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}
	r := &models.Range{Min: -1 << 53, Max: 1 << 53}
	if minRaw != "" {
		v, err := strconv.ParseFloat(minRaw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", errBadQuery, minKey)
		}
		r.Min = v
	}
	if maxRaw != "" {
		v, err := strconv.ParseFloat(maxRaw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", errBadQuery, maxKey)
		}
		r.Max = v
	}
	return r, nil
}

// resolveFilter prefers a saved filter of the caller named by filterId
// over the inline query parameters.
func resolveFilter(r *http.Request, filters *services.FilterService) (models.FilterSpec, error) {
	q := r.URL.Query()
	if id := strings.TrimSpace(q.Get("filterId")); id != "" && filters != nil {
		saved, err := filters.Get(r.Context(), middleware.GetUserIDFromContext(r), id)
		if err != nil {
			return models.FilterSpec{}, err
		}
		return saved.Spec, nil
	}
	return ParseFilterQuery(q)
}
