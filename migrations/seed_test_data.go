package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"customerdash/backend/models"
	"customerdash/backend/store"
)

var sampleCustomers = []models.Customer{
	{CustomerName: "Ayesha Rahman", Division: "Dhaka", Gender: models.GenderFemale, MaritalStatus: models.MaritalMarried, Age: 34, Income: 72000},
	{CustomerName: "Tanvir Hasan", Division: "Chattogram", Gender: models.GenderMale, MaritalStatus: models.MaritalSingle, Age: 27, Income: 41000},
	{CustomerName: "Nusrat Jahan", Division: "Rajshahi", Gender: models.GenderFemale, MaritalStatus: models.MaritalSingle, Age: 23, Income: 28000},
	{CustomerName: "Rafiq Ahmed", Division: "Khulna", Gender: models.GenderMale, MaritalStatus: models.MaritalMarried, Age: 45, Income: 96000},
	{CustomerName: "Sumaiya Akter", Division: "Barishal", Gender: models.GenderFemale, MaritalStatus: models.MaritalDivorced, Age: 39, Income: 53000},
	{CustomerName: "Imran Chowdhury", Division: "Sylhet", Gender: models.GenderMale, MaritalStatus: models.MaritalMarried, Age: 51, Income: 120000},
	{CustomerName: "Farzana Islam", Division: "Rangpur", Gender: models.GenderFemale, MaritalStatus: models.MaritalMarried, Age: 31, Income: 47000},
	{CustomerName: "Arif Hossain", Division: "Mymensingh", Gender: models.GenderMale, MaritalStatus: models.MaritalSingle, Age: 29, Income: 36000},
	{CustomerName: "Shirin Sultana", Division: "Dhaka", Gender: models.GenderFemale, MaritalStatus: models.MaritalSingle, Age: 26, Income: 58000},
	{CustomerName: "Kamal Uddin", Division: "Chattogram", Gender: models.GenderMale, MaritalStatus: models.MaritalMarried, Age: 42, Income: 88000},
	{CustomerName: "Rumana Parvin", Division: "Khulna", Gender: models.GenderFemale, MaritalStatus: models.MaritalMarried, Age: 37, Income: 61000},
	{CustomerName: "Sabbir Khan", Division: "Dhaka", Gender: models.GenderOther, MaritalStatus: models.MaritalSingle, Age: 24, Income: 33000},
}

// SeedSampleCustomers writes a small demo dataset when the environment
// allows it and no customers are stored yet. It reports whether it wrote.
func SeedSampleCustomers(ctx context.Context, opts Options) (bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Environment == "production" {
		logger.Info("refusing to seed sample customers in production")
		return false, nil
	}
	if !opts.SeedSamples && opts.Environment != "development" {
		return false, nil
	}
	if opts.Storage == nil {
		return false, nil
	}

	var existing []models.Customer
	if err := store.LoadJSON(ctx, opts.Storage, store.DefaultDatasetKey, &existing); err != nil {
		return false, fmt.Errorf("failed to check existing customers: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("customers already present, not seeding", zap.Int("count", len(existing)))
		return false, nil
	}

	now := time.Now().UTC()
	records := make([]models.Customer, len(sampleCustomers))
	for i, c := range sampleCustomers {
		c.ID = uuid.NewString()
		c.AddedAt = now.AddDate(0, 0, -i).Format(time.RFC3339Nano)
		records[i] = c
	}

	if err := store.SaveJSON(ctx, opts.Storage, store.DefaultDatasetKey, records); err != nil {
		return false, fmt.Errorf("failed to seed customers: %w", err)
	}
	logger.Info("seeded sample customers", zap.Int("count", len(records)))
	return true, nil
}

func seedSampleCustomers(ctx context.Context, _ *sql.DB, opts Options) error {
	seeded, err := SeedSampleCustomers(ctx, opts)
	if err != nil {
		return err
	}
	if !seeded {
		return errSkipped
	}
	return nil
}
