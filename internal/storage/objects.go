package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore persists chat image attachments. Size limits are enforced at
// the API boundary before Put is ever called.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// DiskStore writes objects under a local directory and serves them from a
// base URL. It stands in for the hosted object storage in development.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore constructs a DiskStore, creating the directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Put writes the object and returns its public URL.
func (s *DiskStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	key = filepath.Base(key)
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.baseURL + "/" + key, nil
}
