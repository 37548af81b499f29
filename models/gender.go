package models

import "strings"

// Gender codes as stored on a Customer.
const (
	GenderMale   = "M"
	GenderFemale = "F"
	GenderOther  = "O"
)

// Gender labels as shown to users and carried by filters.
const (
	LabelMale   = "Male"
	LabelFemale = "Female"
	LabelOther  = "Other"
)

// NormalizeGender maps a code or a label to its storage code. Any other
// non-empty value is treated as Other.
func NormalizeGender(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return ""
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	default:
		return GenderOther
	}
}

// GenderLabel maps a code or a label to its display label.
func GenderLabel(v string) string {
	switch NormalizeGender(v) {
	case GenderMale:
		return LabelMale
	case GenderFemale:
		return LabelFemale
	case GenderOther:
		return LabelOther
	default:
		return ""
	}
}
