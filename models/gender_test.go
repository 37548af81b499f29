package models

import "testing"

func TestNormalizeGender(t *testing.T) {
	testCases := map[string]string{
		"":          "",
		"M":         GenderMale,
		" male ":    GenderMale,
		"MALE":      GenderMale,
		"f":         GenderFemale,
		"Female":    GenderFemale,
		"O":         GenderOther,
		"Other":     GenderOther,
		"nonbinary": GenderOther,
	}
	for in, want := range testCases {
		if got := NormalizeGender(in); got != want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenderLabel(t *testing.T) {
	testCases := map[string]string{
		"":       "",
		"M":      LabelMale,
		"Male":   LabelMale,
		"F":      LabelFemale,
		"female": LabelFemale,
		"O":      LabelOther,
		"x":      LabelOther,
	}
	for in, want := range testCases {
		if got := GenderLabel(in); got != want {
			t.Errorf("GenderLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
