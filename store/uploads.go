package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"customerdash/backend/models"
)

// UploadLog keeps the metadata of every imported spreadsheet under
// UploadedFilesKey.
type UploadLog struct {
	mu      sync.Mutex
	storage Storage
	logger  *zap.Logger
}

func NewUploadLog(storage Storage, logger *zap.Logger) *UploadLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadLog{storage: storage, logger: logger}
}

// Append adds entry to the end of the log. A log that no longer decodes
// is replaced; a failed read leaves the stored log alone and is returned.
func (l *UploadLog) Append(ctx context.Context, entry models.UploadedFile) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var files []models.UploadedFile
	if err := LoadJSON(ctx, l.storage, UploadedFilesKey, &files); err != nil {
		if !IsDecodeError(err) {
			return fmt.Errorf("failed to read upload log: %w", err)
		}
		l.logger.Warn("replacing corrupt upload log", zap.Error(err))
		files = nil
	}
	files = append(files, entry)
	return SaveJSON(ctx, l.storage, UploadedFilesKey, files)
}

// List returns the log oldest first. An unreadable log is reported as
// empty.
func (l *UploadLog) List(ctx context.Context) ([]models.UploadedFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files := []models.UploadedFile{}
	if err := LoadJSON(ctx, l.storage, UploadedFilesKey, &files); err != nil {
		l.logger.Warn("failed to load upload log", zap.Error(err))
		return []models.UploadedFile{}, nil
	}
	return files, nil
}
