// Package store owns the authoritative customer collection and its
// persisted form.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Storage is the persistence port the store writes through. Values are
// whole JSON documents keyed by dataset name.
type Storage interface {
	// Load returns the stored document, or nil and no error when the key
	// has never been written.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Well-known keys.
const (
	DefaultDatasetKey = "customers"
	UploadedFilesKey  = "uploadedFiles"
	SavedFiltersKey   = "savedFilters"
)

// LoadJSON decodes the document under key into v. A missing key leaves v
// untouched and returns nil.
func LoadJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := s.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SaveJSON encodes v and writes it under key in a single Save.
func SaveJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// IsDecodeError reports whether err came from a stored document that is
// not valid JSON for its target, as opposed to a failed read.
func IsDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
