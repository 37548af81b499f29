// Package blob stores opaque objects such as archived spreadsheets and
// dataset backups.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Driver identifies a blob backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotFound is returned when a key holds no object.
var ErrNotFound = errors.New("blob not found")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored object.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"contentType,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"lastModified"`
}

// Store is a small S3-like object store. Put never overwrites.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Config selects and configures a backend.
type Config struct {
	Driver string
	Root   string // fs driver
	S3     S3Config
}

// Open builds the configured Store. An empty driver disables blob storage
// and returns nil.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch Driver(strings.ToLower(cfg.Driver)) {
	case "":
		return nil, nil
	case DriverFilesystem:
		s, err := NewFilesystem(cfg.Root)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		s, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

// Key joins path segments into an object key, dropping any directory part
// of the last segment.
func Key(prefix string, parts ...string) string {
	segs := []string{strings.Trim(prefix, "/")}
	for i, p := range parts {
		if i == len(parts)-1 {
			p = path.Base(strings.ReplaceAll(p, "\\", "/"))
		}
		segs = append(segs, strings.Trim(p, "/"))
	}
	return path.Join(segs...)
}

func cloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
