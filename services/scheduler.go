package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"customerdash/backend/blob"
	"customerdash/backend/store"
)

// BackupService snapshots the customer collection into blob storage.
type BackupService struct {
	store  *store.Store
	blobs  blob.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewBackupService(st *store.Store, blobs blob.Store, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{store: st, blobs: blobs, now: time.Now, logger: logger}
}

// Run writes one snapshot and returns its key.
func (b *BackupService) Run(ctx context.Context) (string, error) {
	records := b.store.Records()
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup: %w", err)
	}

	key := fmt.Sprintf("backups/%s-%s.json", b.store.Key(), b.now().UTC().Format("20060102T150405.000000000Z"))
	if _, err := b.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"records": fmt.Sprint(len(records))},
	}); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	b.logger.Info("wrote backup", zap.String("key", key), zap.Int("records", len(records)))
	return key, nil
}

// StartScheduler runs a backup every interval until ctx is cancelled. The
// returned channel is closed once the loop has exited.
func (b *BackupService) StartScheduler(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	b.logger.Info("starting backup scheduler", zap.Duration("interval", interval))

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				b.logger.Info("backup scheduler stopped")
				return
			case <-ticker.C:
				if _, err := b.Run(ctx); err != nil {
					b.logger.Error("scheduled backup failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
