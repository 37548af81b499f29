package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"customerdash/backend/blob"
	"customerdash/backend/metrics"
	"customerdash/backend/models"
	"customerdash/backend/store"
)

// ImportResult describes a completed import.
type ImportResult struct {
	Imported int                 `json:"imported"`
	Rejected int                 `json:"rejected"`
	Rows     []RowResult         `json:"rejectedRows,omitempty"`
	Records  []models.Customer   `json:"records"`
	File     models.UploadedFile `json:"file"`
}

// ImportService turns uploaded spreadsheets into customer records.
type ImportService struct {
	store       *store.Store
	uploads     *store.UploadLog
	blobs       blob.Store
	preserveIDs bool
	now         func() time.Time
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// ImportOption configures an ImportService.
type ImportOption func(*ImportService)

// WithArchive stores every accepted upload in blobs.
func WithArchive(blobs blob.Store) ImportOption {
	return func(s *ImportService) { s.blobs = blobs }
}

// WithPreservedIDs keeps the ID column of the sheet when it is free.
func WithPreservedIDs(preserve bool) ImportOption {
	return func(s *ImportService) { s.preserveIDs = preserve }
}

func WithImportClock(now func() time.Time) ImportOption {
	return func(s *ImportService) { s.now = now }
}

func WithImportLogger(l *zap.Logger) ImportOption {
	return func(s *ImportService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithImportMetrics(m *metrics.Metrics) ImportOption {
	return func(s *ImportService) { s.metrics = m }
}

func NewImportService(st *store.Store, uploads *store.UploadLog, opts ...ImportOption) *ImportService {
	s := &ImportService{
		store:   st,
		uploads: uploads,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseFile reads rows from r using the reader matching the extension of
// filename.
func ParseFile(filename string, r io.Reader) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return ReadWorkbook(r)
	case ".xls":
		return ReadLegacyWorkbook(r)
	case ".csv":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// Import validates the spreadsheet and inserts every complete row in one
// store write. Nothing is imported when no row is valid. A returned
// *store.PersistError accompanies a valid result.
func (s *ImportService) Import(ctx context.Context, filename string, size int64, r io.Reader) (*ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if size <= 0 {
		size = int64(len(data))
	}

	rows, err := ParseFile(filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	now := s.now()
	valid, rejected := PartitionRows(ValidateRows(rows, now))
	s.metrics.ImportRows(len(valid), len(rejected))
	if len(valid) == 0 {
		s.logger.Info("rejected upload without valid rows",
			zap.String("file", filename),
			zap.Int("rows", len(rows)))
		return nil, fmt.Errorf("%w: %d rows rejected", ErrNoValidRows, len(rejected))
	}

	entry := models.UploadedFile{
		ID:         uuid.NewString(),
		Name:       filename,
		UploadedAt: now.UTC(),
		Size:       size,
		Imported:   len(valid),
		Rejected:   len(rejected),
	}
	if s.blobs != nil {
		key := blob.Key("uploads", entry.ID, filename)
		_, err := s.blobs.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{
			ContentType: contentTypeFor(filename),
			Metadata: map[string]string{
				"imported": strconv.Itoa(len(valid)),
				"rejected": strconv.Itoa(len(rejected)),
			},
		})
		if err != nil {
			s.logger.Warn("failed to archive upload", zap.String("file", filename), zap.Error(err))
		} else {
			entry.BlobKey = key
		}
	}

	added, storeErr := s.store.AddImported(ctx, valid, s.preserveIDs)
	if storeErr != nil && !store.IsPersistWarning(storeErr) {
		return nil, storeErr
	}

	if err := s.uploads.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record uploaded file", zap.String("file", filename), zap.Error(err))
	}

	s.logger.Info("imported customers",
		zap.String("file", filename),
		zap.Int("imported", len(added)),
		zap.Int("rejected", len(rejected)))

	return &ImportResult{
		Imported: len(added),
		Rejected: len(rejected),
		Rows:     rejected,
		Records:  added,
		File:     entry,
	}, storeErr
}

// Files lists the uploaded-file log.
func (s *ImportService) Files(ctx context.Context) ([]models.UploadedFile, error) {
	return s.uploads.List(ctx)
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return "text/csv"
	case ".xls":
		return "application/vnd.ms-excel"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
