package services

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"customerdash/backend/models"
)

// NoData is reported by MostFrequent when no record has a value.
const NoData = "No data"

// ErrUnknownField is returned by ParseField for names it does not know.
var ErrUnknownField = errors.New("unknown field")

// Field names a Customer attribute that can be grouped or measured.
type Field string

const (
	FieldCustomerName  Field = "customerName"
	FieldDivision      Field = "division"
	FieldGender        Field = "gender"
	FieldMaritalStatus Field = "maritalStatus"
	FieldAge           Field = "age"
	FieldIncome        Field = "income"
)

var fields = []Field{FieldCustomerName, FieldDivision, FieldGender, FieldMaritalStatus, FieldAge, FieldIncome}

// ParseField accepts a field name, ignoring case.
func ParseField(name string) (Field, error) {
	name = strings.TrimSpace(name)
	for _, f := range fields {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Numeric reports whether the field holds a number.
func (f Field) Numeric() bool {
	return f == FieldAge || f == FieldIncome
}

// Value returns the grouping key of r for f. Gender is reported by its
// display label.
func (f Field) Value(r models.Customer) string {
	switch f {
	case FieldCustomerName:
		return r.CustomerName
	case FieldDivision:
		return r.Division
	case FieldGender:
		return models.GenderLabel(r.Gender)
	case FieldMaritalStatus:
		return r.MaritalStatus
	case FieldAge:
		return strconv.Itoa(r.Age)
	case FieldIncome:
		return strconv.FormatFloat(r.Income, 'f', -1, 64)
	}
	return ""
}

// Number returns the numeric value of r for f, or 0 for text fields.
func (f Field) Number(r models.Customer) float64 {
	switch f {
	case FieldAge:
		return float64(r.Age)
	case FieldIncome:
		return r.Income
	}
	return 0
}

// Count returns the number of records.
func Count(records []models.Customer) int {
	return len(records)
}

// CountAddedOn counts records whose addedAt falls on the UTC calendar day
// of date.
func CountAddedOn(records []models.Customer, date time.Time) int {
	day := date.UTC().Format(time.DateOnly)
	n := 0
	for _, r := range records {
		if addedDay(r.AddedAt) == day {
			n++
		}
	}
	return n
}

func addedDay(addedAt string) string {
	if t, err := time.Parse(time.RFC3339Nano, addedAt); err == nil {
		return t.UTC().Format(time.DateOnly)
	}
	if len(addedAt) >= len(time.DateOnly) {
		return addedAt[:len(time.DateOnly)]
	}
	return ""
}

// MostFrequent returns the most common non-empty value of field. Ties go
// to the value seen first.
func MostFrequent(records []models.Customer, field Field) string {
	best, bestCount := NoData, 0
	for _, g := range GroupCount(records, field) {
		if g.Key == "" {
			continue
		}
		if g.Count > bestCount {
			best, bestCount = g.Key, g.Count
		}
	}
	return best
}

// Median returns the median of values, averaging the middle pair for even
// lengths. It returns 0 for no values and leaves values untouched.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Values collects the numeric value of field from every record.
func Values(records []models.Customer, field Field) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = field.Number(r)
	}
	return out
}

// GroupCount counts records per value of field, in first-seen order.
func GroupCount(records []models.Customer, field Field) []models.GroupCount {
	out := []models.GroupCount{}
	index := map[string]int{}
	for _, r := range records {
		key := field.Value(r)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, models.GroupCount{Key: key})
		}
		out[i].Count++
	}
	return out
}

// GroupMedian returns the median of value per group of field.
func GroupMedian(records []models.Customer, field, value Field) []models.GroupValue {
	return groupReduce(records, field, value, Median)
}

// GroupMax returns the largest value per group of field.
func GroupMax(records []models.Customer, field, value Field) []models.GroupValue {
	return groupReduce(records, field, value, func(vs []float64) float64 {
		return slices.Max(vs)
	})
}

// groupReduce never calls reduce with an empty slice.
func groupReduce(records []models.Customer, field, value Field, reduce func([]float64) float64) []models.GroupValue {
	var keys []string
	groups := map[string][]float64{}
	for _, r := range records {
		key := field.Value(r)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], value.Number(r))
	}

	out := make([]models.GroupValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.GroupValue{Key: k, Value: reduce(groups[k])})
	}
	return out
}
