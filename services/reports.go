package services

import (
	"strings"
	"time"

	"customerdash/backend/models"
)

// UnknownDivision labels records without a division in division charts.
const UnknownDivision = "Unknown"

// BuildSummary computes the dashboard cards for records as of now.
func BuildSummary(records []models.Customer, now time.Time) models.Summary {
	return models.Summary{
		Total:                Count(records),
		AddedToday:           CountAddedOn(records, now),
		MostFrequentDivision: MostFrequent(records, FieldDivision),
		MedianAge:            Median(Values(records, FieldAge)),
		MedianIncome:         Median(Values(records, FieldIncome)),
	}
}

// MaritalSplitByDivision counts married and unmarried customers per
// division, in first-seen order. Any status other than Married counts as
// unmarried.
func MaritalSplitByDivision(records []models.Customer) []models.MaritalSplit {
	out := []models.MaritalSplit{}
	index := map[string]int{}
	for _, r := range records {
		division := divisionOrUnknown(r.Division)
		i, ok := index[division]
		if !ok {
			i = len(out)
			index[division] = i
			out = append(out, models.MaritalSplit{Division: division})
		}
		if strings.EqualFold(strings.TrimSpace(r.MaritalStatus), models.MaritalMarried) {
			out[i].Married++
		} else {
			out[i].Unmarried++
		}
	}
	return out
}

// DivisionDistribution counts customers per division, grouping blank
// divisions under UnknownDivision.
func DivisionDistribution(records []models.Customer) []models.GroupCount {
	groups := GroupCount(records, FieldDivision)
	out := make([]models.GroupCount, 0, len(groups))
	unknown := -1
	for _, g := range groups {
		key := divisionOrUnknown(g.Key)
		if key == UnknownDivision {
			if unknown >= 0 {
				out[unknown].Count += g.Count
				continue
			}
			unknown = len(out)
		}
		out = append(out, models.GroupCount{Key: key, Count: g.Count})
	}
	return out
}

func divisionOrUnknown(d string) string {
	if strings.TrimSpace(d) == "" {
		return UnknownDivision
	}
	return d
}
