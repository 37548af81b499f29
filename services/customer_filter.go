package services

import (
	"strings"

	"customerdash/backend/models"
)

// FilterCustomers returns the records matching spec in their original
// order. An empty spec returns records as given. The input is never
// modified.
func FilterCustomers(records []models.Customer, spec models.FilterSpec) []models.Customer {
	if spec.IsEmpty() {
		return records
	}

	out := make([]models.Customer, 0, len(records))
	for _, r := range records {
		if MatchesFilter(r, spec) {
			out = append(out, r)
		}
	}
	return out
}

// MatchesFilter reports whether r satisfies every populated constraint.
func MatchesFilter(r models.Customer, spec models.FilterSpec) bool {
	if q := strings.ToLower(strings.TrimSpace(spec.CustomerName)); q != "" {
		if !strings.Contains(strings.ToLower(r.CustomerName), q) {
			return false
		}
	}
	if !matchesSelection(spec.Division, r.Division, foldValue) {
		return false
	}
	if !matchesSelection(spec.Gender, r.Gender, models.NormalizeGender) {
		return false
	}
	if !matchesSelection(spec.MaritalStatus, r.MaritalStatus, foldValue) {
		return false
	}
	if spec.AgeRange != nil && !spec.AgeRange.Contains(float64(r.Age)) {
		return false
	}
	if spec.IncomeRange != nil && !spec.IncomeRange.Contains(r.Income) {
		return false
	}
	return true
}

func matchesSelection(sel models.Selection, value string, canon func(string) string) bool {
	if sel.IsAll() {
		return true
	}
	v := canon(value)
	for _, want := range sel {
		if canon(want) == v {
			return true
		}
	}
	return false
}

func foldValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
