package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"customerdash/backend/metrics"
	"customerdash/backend/models"
)

var (
	// ErrNotFound is returned when an id does not name a stored record.
	ErrNotFound = errors.New("customer not found")
	// ErrInvalidRecord is returned when a required field is missing.
	ErrInvalidRecord = errors.New("invalid customer record")
)

// PersistError reports that a mutation was applied in memory but could not
// be written to storage. It is a warning: the returned result is valid.
type PersistError struct {
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("customers saved in memory but not persisted to %q: %v", e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsPersistWarning reports whether err only signals a failed write.
func IsPersistWarning(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}

// Store is the single owner of the customer collection. Every operation
// holds the store lock, including the write to storage.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	records []models.Customer

	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithKey sets the dataset key. Defaults to DefaultDatasetKey.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New builds a store over storage and loads the persisted collection.
func New(ctx context.Context, storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultDatasetKey,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load(ctx)
	return s
}

// Key returns the dataset key the store persists under.
func (s *Store) Key() string { return s.key }

// Load replaces the in-memory collection with the persisted one. Missing
// or unreadable data yields an empty collection.
func (s *Store) Load(ctx context.Context) []models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.Customer
	data, err := s.storage.Load(ctx, s.key)
	switch {
	case err != nil:
		s.logger.Warn("failed to load customers, starting empty", zap.String("key", s.key), zap.Error(err))
	case len(data) == 0:
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			s.logger.Warn("stored customers are corrupt, starting empty", zap.String("key", s.key), zap.Error(err))
			records = nil
		}
	}
	if records == nil {
		records = []models.Customer{}
	}
	s.records = records
	s.metrics.SetRecords(len(records))
	return cloneRecords(records)
}

// Records returns a copy of the collection in insertion order.
func (s *Store) Records() []models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Get looks up a record by id.
func (s *Store) Get(id string) (models.Customer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.records[i], true
	}
	return models.Customer{}, false
}

// Add validates input, stamps it and appends it.
func (s *Store) Add(ctx context.Context, in models.CustomerInput) ([]models.Customer, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, s.stamp(in, s.now()))
	return cloneRecords(s.records), s.persist(ctx, "add")
}

// AddBatch appends every input with a single write. Nothing is added when
// any input is invalid.
func (s *Store) AddBatch(ctx context.Context, inputs []models.CustomerInput) ([]models.Customer, error) {
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrInvalidRecord, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(inputs) == 0 {
		return cloneRecords(s.records), nil
	}
	for _, in := range inputs {
		s.records = append(s.records, s.stamp(in, s.now()))
	}
	return cloneRecords(s.records), s.persist(ctx, "add_batch")
}

// AddImported appends already validated records. Sheet ids are kept only
// when preserveIDs is set and the id is free; otherwise a new id is used.
func (s *Store) AddImported(ctx context.Context, records []models.Customer, preserveIDs bool) ([]models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(records) == 0 {
		return []models.Customer{}, nil
	}

	used := make(map[string]struct{}, len(s.records)+len(records))
	for _, r := range s.records {
		used[r.ID] = struct{}{}
	}

	added := make([]models.Customer, 0, len(records))
	for _, r := range records {
		id := strings.TrimSpace(r.ID)
		if _, taken := used[id]; !preserveIDs || id == "" || taken {
			id = s.freshID(used)
		}
		used[id] = struct{}{}
		r.ID = id
		r.Gender = models.NormalizeGender(r.Gender)
		if r.AddedAt == "" {
			r.AddedAt = formatTime(s.now())
		}
		added = append(added, r)
	}
	s.records = append(s.records, added...)
	return added, s.persist(ctx, "import")
}

// Edit merges patch into the record with the given id. The id and addedAt
// of the record never change.
func (s *Store) Edit(ctx context.Context, id string, patch models.CustomerPatch) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Customer{}, ErrNotFound
	}
	updated := patch.Apply(s.records[i])
	if strings.TrimSpace(updated.CustomerName) == "" || strings.TrimSpace(updated.Division) == "" {
		return models.Customer{}, fmt.Errorf("%w: customerName and division are required", ErrInvalidRecord)
	}
	s.records[i] = updated
	return updated, s.persist(ctx, "edit")
}

// Remove deletes the record with the given id. Removing an unknown id is a
// no-op and does not touch storage.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.records = append(s.records[:i:i], s.records[i+1:]...)
	return true, s.persist(ctx, "remove")
}

// RemoveMany deletes every record whose id is in ids, keeping the order of
// the rest. It returns how many records were removed.
func (s *Store) RemoveMany(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := make([]models.Customer, 0, len(s.records))
	for _, r := range s.records {
		if _, ok := drop[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	removed := len(s.records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.records = kept
	return removed, s.persist(ctx, "remove_many")
}

// Copy duplicates a record under a new id and a new addedAt.
func (s *Store) Copy(ctx context.Context, id string) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Customer{}, ErrNotFound
	}
	dup := s.records[i]
	dup.ID = s.freshID(nil)
	dup.AddedAt = formatTime(s.now())
	s.records = append(s.records, dup)
	return dup, s.persist(ctx, "copy")
}

// persist writes the whole collection. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, op string) error {
	s.metrics.StoreMutation(op, len(s.records))
	if err := SaveJSON(ctx, s.storage, s.key, s.records); err != nil {
		s.logger.Warn("failed to persist customers",
			zap.String("op", op),
			zap.String("key", s.key),
			zap.Int("records", len(s.records)),
			zap.Error(err))
		s.metrics.PersistFailure(s.key)
		return &PersistError{Key: s.key, Err: err}
	}
	return nil
}

func (s *Store) stamp(in models.CustomerInput, at time.Time) models.Customer {
	return models.Customer{
		ID:            s.freshID(nil),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		Division:      strings.TrimSpace(in.Division),
		Gender:        models.NormalizeGender(in.Gender),
		MaritalStatus: strings.TrimSpace(in.MaritalStatus),
		Age:           in.Age.Int(),
		Income:        in.Income.Float(),
		AddedAt:       formatTime(at),
	}
}

// freshID returns an id not used by any stored record nor present in
// extra. Callers hold s.mu.
func (s *Store) freshID(extra map[string]struct{}) string {
	for {
		id := s.newID()
		if _, taken := extra[id]; taken {
			continue
		}
		if s.indexOf(id) >= 0 {
			continue
		}
		return id
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func cloneRecords(in []models.Customer) []models.Customer {
	out := make([]models.Customer, len(in))
	copy(out, in)
	return out
}
