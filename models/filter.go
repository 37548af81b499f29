package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AllSentinel selects every value of a multi-select field.
const AllSentinel = "all"

// FilterSpec is the declarative filter the dashboard sends with a query.
// A zero FilterSpec matches every record.
type FilterSpec struct {
	CustomerName  string    `json:"customerName,omitempty"`
	Division      Selection `json:"division,omitempty"`
	Gender        Selection `json:"gender,omitempty"`
	MaritalStatus Selection `json:"maritalStatus,omitempty"`
	AgeRange      *Range    `json:"ageRange,omitempty"`
	IncomeRange   *Range    `json:"incomeRange,omitempty"`
}

// IsEmpty reports whether the filter constrains nothing.
func (f FilterSpec) IsEmpty() bool {
	return strings.TrimSpace(f.CustomerName) == "" &&
		f.Division.IsAll() &&
		f.Gender.IsAll() &&
		f.MaritalStatus.IsAll() &&
		f.AgeRange == nil &&
		f.IncomeRange == nil
}

// Selection is a multi-select constraint. On the wire it is either the
// string "all" or an array of allowed values.
type Selection []string

// IsAll reports whether the selection places no constraint.
func (s Selection) IsAll() bool {
	if len(s) == 0 {
		return true
	}
	for _, v := range s {
		if strings.EqualFold(strings.TrimSpace(v), AllSentinel) {
			return true
		}
	}
	return false
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Selection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		if strings.TrimSpace(one) == "" {
			*s = nil
			return nil
		}
		*s = Selection{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("selection must be \"all\" or an array of strings: %w", err)
	}
	*s = many
	return nil
}

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the inclusive bounds.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MarshalJSON encodes the range as a two element array.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{r.Min, r.Max})
}

// UnmarshalJSON accepts [min, max] or {"min": .., "max": ..}.
func (r *Range) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Min FlexNumber `json:"min"`
			Max FlexNumber `json:"max"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.Min, r.Max = obj.Min.Float(), obj.Max.Float()
		return nil
	}
	var pair []FlexNumber
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("range must be [min, max]: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("range must have exactly two bounds, got %d", len(pair))
	}
	r.Min, r.Max = pair[0].Float(), pair[1].Float()
	return nil
}

// SavedFilter is a named FilterSpec kept for reuse by the user who
// created it.
type SavedFilter struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"ownerId"`
	Name      string     `json:"name"`
	Spec      FilterSpec `json:"spec"`
	IsDefault bool       `json:"isDefault"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
