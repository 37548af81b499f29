package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"customerdash/backend/models"
	"customerdash/backend/store"
)

// ErrFilterNotFound is returned for an unknown saved filter id.
var ErrFilterNotFound = errors.New("saved filter not found")

// FilterService keeps named filter specs under store.SavedFiltersKey.
// Every filter belongs to one owner and is invisible to everyone else.
type FilterService struct {
	mu      sync.Mutex
	storage store.Storage
	now     func() time.Time
}

func NewFilterService(storage store.Storage) *FilterService {
	return &FilterService{storage: storage, now: time.Now}
}

func (s *FilterService) load(ctx context.Context) ([]models.SavedFilter, error) {
	filters := []models.SavedFilter{}
	if err := store.LoadJSON(ctx, s.storage, store.SavedFiltersKey, &filters); err != nil {
		return nil, fmt.Errorf("failed to load saved filters: %w", err)
	}
	return filters, nil
}

func (s *FilterService) save(ctx context.Context, filters []models.SavedFilter) error {
	if err := store.SaveJSON(ctx, s.storage, store.SavedFiltersKey, filters); err != nil {
		return fmt.Errorf("failed to save filters: %w", err)
	}
	return nil
}

func indexOfFilter(filters []models.SavedFilter, owner, id string) int {
	for i := range filters {
		if filters[i].ID == id && filters[i].OwnerID == owner {
			return i
		}
	}
	return -1
}

// Create stores a new saved filter for owner. When isDefault is set every
// other filter of owner stops being the default.
func (s *FilterService) Create(ctx context.Context, owner, name string, spec models.FilterSpec, isDefault bool) (*models.SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("filter name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filters, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	filter := models.SavedFilter{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Name:      name,
		Spec:      spec,
		IsDefault: isDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if isDefault {
		clearDefault(filters, owner)
	}
	filters = append(filters, filter)

	if err := s.save(ctx, filters); err != nil {
		return nil, err
	}
	return &filter, nil
}

// List returns the saved filters of owner in creation order.
func (s *FilterService) List(ctx context.Context, owner string) ([]models.SavedFilter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.SavedFilter{}
	for _, f := range filters {
		if f.OwnerID == owner {
			out = append(out, f)
		}
	}
	return out, nil
}

// Get retrieves a saved filter by ID
func (s *FilterService) Get(ctx context.Context, owner, id string) (*models.SavedFilter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOfFilter(filters, owner, id)
	if idx < 0 {
		return nil, ErrFilterNotFound
	}
	return &filters[idx], nil
}

// Default returns the default filter of owner, or ErrFilterNotFound when
// none is marked.
func (s *FilterService) Default(ctx context.Context, owner string) (*models.SavedFilter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range filters {
		if filters[i].OwnerID == owner && filters[i].IsDefault {
			return &filters[i], nil
		}
	}
	return nil, ErrFilterNotFound
}

// Update replaces the name, spec and default flag of a saved filter.
func (s *FilterService) Update(ctx context.Context, owner, id, name string, spec models.FilterSpec, isDefault bool) (*models.SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("filter name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filters, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOfFilter(filters, owner, id)
	if idx < 0 {
		return nil, ErrFilterNotFound
	}

	if isDefault {
		clearDefault(filters, owner)
	}
	filters[idx].Name = name
	filters[idx].Spec = spec
	filters[idx].IsDefault = isDefault
	filters[idx].UpdatedAt = s.now().UTC()

	if err := s.save(ctx, filters); err != nil {
		return nil, err
	}
	updated := filters[idx]
	return &updated, nil
}

// Delete deletes a saved filter
func (s *FilterService) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters, err := s.load(ctx)
	if err != nil {
		return err
	}

	idx := indexOfFilter(filters, owner, id)
	if idx < 0 {
		return ErrFilterNotFound
	}
	filters = append(filters[:idx], filters[idx+1:]...)
	return s.save(ctx, filters)
}

func clearDefault(filters []models.SavedFilter, owner string) {
	for i := range filters {
		if filters[i].OwnerID == owner {
			filters[i].IsDefault = false
		}
	}
}
