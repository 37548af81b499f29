package models

import "time"

// GroupCount is the number of records sharing a field value.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GroupValue is a numeric figure derived for one field value.
type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Summary backs the dashboard cards.
type Summary struct {
	Total                int     `json:"total"`
	AddedToday           int     `json:"addedToday"`
	MostFrequentDivision string  `json:"mostFrequentDivision"`
	MedianAge            float64 `json:"medianAge"`
	MedianIncome         float64 `json:"medianIncome"`
}

// MaritalSplit counts married and unmarried customers of one division.
type MaritalSplit struct {
	Division  string `json:"division"`
	Married   int    `json:"married"`
	Unmarried int    `json:"unmarried"`
}

// UploadedFile is the audit entry kept for each imported spreadsheet.
type UploadedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploadedAt"`
	Size       int64     `json:"size"`
	BlobKey    string    `json:"blobKey,omitempty"`
	Imported   int       `json:"imported"`
	Rejected   int       `json:"rejected"`
}
