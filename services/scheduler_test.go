package services

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"customerdash/backend/blob"
	"customerdash/backend/database"
	"customerdash/backend/models"
	"customerdash/backend/store"
)

func TestBackupRun(t *testing.T) {
	ctx := context.Background()
	st := store.New(ctx, database.NewMemoryStore())
	_, err := st.Add(ctx, models.CustomerInput{CustomerName: "Ann", Division: "Dhaka"})
	require.NoError(t, err)

	blobs := blob.NewMemory()
	svc := NewBackupService(st, blobs, nil)
	svc.now = func() time.Time { return time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC) }

	key, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backups/customers-20250314T100000.000000000Z.json", key)

	_, rc, err := blobs.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	require.NoError(t, err)

	var snapshot []models.Customer
	require.NoError(t, json.Unmarshal(raw, &snapshot))
	assert.Equal(t, st.Records(), snapshot)
}

func TestBackupSchedulerStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	st := store.New(ctx, database.NewMemoryStore())
	blobs := blob.NewMemory()
	svc := NewBackupService(st, blobs, nil)

	done := svc.StartScheduler(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		list, _ := blobs.List(context.Background(), "backups/")
		return len(list) > 0
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
