package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Divisions lists the administrative divisions offered by the entry form.
var Divisions = []string{
	"Dhaka",
	"Chattogram",
	"Rajshahi",
	"Khulna",
	"Barishal",
	"Sylhet",
	"Rangpur",
	"Mymensingh",
}

// Marital statuses
const (
	MaritalSingle   = "Single"
	MaritalMarried  = "Married"
	MaritalDivorced = "Divorced"
)

// Customer is a single customer record as held by the store.
type Customer struct {
	ID            string  `json:"id"`
	CustomerName  string  `json:"customerName"`
	Division      string  `json:"division"`
	Gender        string  `json:"gender"` // stored as a gender code (M, F, O)
	MaritalStatus string  `json:"maritalStatus"`
	Age           int     `json:"age"`
	Income        float64 `json:"income"`
	AddedAt       string  `json:"addedAt"`
}

// CustomerInput is the caller-supplied part of a new record. The store
// assigns ID and AddedAt.
type CustomerInput struct {
	CustomerName  string     `json:"customerName"`
	Division      string     `json:"division"`
	Gender        string     `json:"gender"`
	MaritalStatus string     `json:"maritalStatus"`
	Age           FlexNumber `json:"age"`
	Income        FlexNumber `json:"income"`
}

// Validate reports the first missing required field.
func (in CustomerInput) Validate() error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return fmt.Errorf("customerName is required")
	}
	if strings.TrimSpace(in.Division) == "" {
		return fmt.Errorf("division is required")
	}
	return nil
}

// CustomerPatch carries the fields of an edit. Nil fields are left alone.
// ID and AddedAt are accepted on the wire but never applied.
type CustomerPatch struct {
	ID            *string     `json:"id,omitempty"`
	AddedAt       *string     `json:"addedAt,omitempty"`
	CustomerName  *string     `json:"customerName,omitempty"`
	Division      *string     `json:"division,omitempty"`
	Gender        *string     `json:"gender,omitempty"`
	MaritalStatus *string     `json:"maritalStatus,omitempty"`
	Age           *FlexNumber `json:"age,omitempty"`
	Income        *FlexNumber `json:"income,omitempty"`
}

// Apply merges the patch over c and returns the result. Identity fields
// of c are kept. Text fields are trimmed the same way new records are.
func (p CustomerPatch) Apply(c Customer) Customer {
	out := c
	if p.CustomerName != nil {
		out.CustomerName = strings.TrimSpace(*p.CustomerName)
	}
	if p.Division != nil {
		out.Division = strings.TrimSpace(*p.Division)
	}
	if p.Gender != nil {
		out.Gender = NormalizeGender(*p.Gender)
	}
	if p.MaritalStatus != nil {
		out.MaritalStatus = strings.TrimSpace(*p.MaritalStatus)
	}
	if p.Age != nil {
		out.Age = p.Age.Int()
	}
	if p.Income != nil {
		out.Income = p.Income.Float()
	}
	out.ID = c.ID
	out.AddedAt = c.AddedAt
	return out
}

// FlexNumber decodes from a JSON number or a numeric string. Strings that
// do not parse decode to 0.
type FlexNumber float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = FlexNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected number or numeric string: %w", err)
	}
	*n = FlexNumber(ParseNumber(s))
	return nil
}

// Float returns the value as a float64.
func (n FlexNumber) Float() float64 { return float64(n) }

// Int truncates the value toward zero.
func (n FlexNumber) Int() int { return int(n) }

// ParseNumber coerces a cell or form value to a number, falling back to 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
