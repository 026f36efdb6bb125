// Package memory provides an in-memory businessapi.Repository used in tests
// and local development.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/discover-business/business-api/pkg/businessapi"
)

// Repository implements businessapi.Repository using in-memory storage.
// Documents are copied on read and write so callers never share map state
// with the store.
type Repository struct {
	mu         sync.RWMutex
	businesses map[string]businessapi.Fields
	order      []string // insertion order, stands in for store-native order
	events     []*businessapi.Event
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		businesses: make(map[string]businessapi.Fields),
	}
}

func (r *Repository) CreateBusiness(ctx context.Context, fields businessapi.Fields) (*businessapi.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	r.businesses[id] = fields.Clone()
	r.order = append(r.order, id)

	return &businessapi.Business{ID: id, Fields: fields.Clone()}, nil
}

func (r *Repository) ListBusinesses(ctx context.Context) ([]*businessapi.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*businessapi.Business, 0, len(r.order))
	for _, id := range r.order {
		fields, exists := r.businesses[id]
		if !exists {
			continue
		}
		result = append(result, &businessapi.Business{ID: id, Fields: fields.Clone()})
	}
	return result, nil
}

func (r *Repository) GetBusiness(ctx context.Context, id string) (*businessapi.Business, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields, exists := r.businesses[id]
	if !exists {
		return nil, businessapi.ErrBusinessNotFound
	}
	return &businessapi.Business{ID: id, Fields: fields.Clone()}, nil
}

func (r *Repository) UpdateBusiness(ctx context.Context, id string, fields businessapi.Fields) (*businessapi.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.businesses[id]
	if !exists {
		return nil, businessapi.ErrBusinessNotFound
	}

	// Field-level merge, not full replace.
	for k, v := range fields {
		existing[k] = v
	}

	return &businessapi.Business{ID: id, Fields: existing.Clone()}, nil
}

func (r *Repository) DeleteBusiness(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.businesses[id]; !exists {
		return businessapi.ErrBusinessNotFound
	}
	delete(r.businesses, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]*businessapi.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*businessapi.Event, 0, len(r.events))
	for _, ev := range r.events {
		result = append(result, &businessapi.Event{ID: ev.ID, Fields: ev.Fields.Clone()})
	}
	return result, nil
}

// SeedEvent inserts an event record. The events collection is read-only
// through the API, so tests and dev fixtures populate it directly.
func (r *Repository) SeedEvent(id string, fields businessapi.Fields) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, &businessapi.Event{ID: id, Fields: fields.Clone()})
}
