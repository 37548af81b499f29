package database

import (
	"context"

	"customerdash/backend/migrations"
)

// Migrations lists the migrations recorded in the backend's database. The
// memory driver has none.
func (b *Backend) Migrations(ctx context.Context) ([]migrations.Applied, error) {
	if b.db == nil {
		return nil, nil
	}
	return migrations.List(ctx, b.db)
}
