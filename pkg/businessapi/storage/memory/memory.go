// Package memory provides an in-memory businessapi.BlobStore used in tests
// and local development. Uploaded blobs are addressable under a synthetic
// memory:// URL scheme.
package memory

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"

	"github.com/discover-business/business-api/pkg/businessapi"
)

// Backend is an in-memory implementation of the businessapi.BlobStore interface
type Backend struct {
	mu    sync.RWMutex
	blobs map[string]businessapi.Attachment
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		blobs: make(map[string]businessapi.Attachment),
	}
}

// Upload stores the attachment and returns its synthetic public URL.
func (b *Backend) Upload(ctx context.Context, att businessapi.Attachment) (string, error) {
	if len(att.Data) == 0 {
		return "", businessapi.ErrEmptyAttachment
	}

	key := uuid.NewString() + path.Ext(att.Filename)

	b.mu.Lock()
	defer b.mu.Unlock()

	copied := att
	copied.Data = append([]byte(nil), att.Data...)
	b.blobs[key] = copied

	return fmt.Sprintf("memory://blobs/%s", key), nil
}

// Blob returns the stored attachment for a URL previously returned by
// Upload. Used by tests to verify what was durably stored.
func (b *Backend) Blob(url string) (businessapi.Attachment, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	att, ok := b.blobs[path.Base(url)]
	return att, ok
}

// Len reports the number of stored blobs.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
