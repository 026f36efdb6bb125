// Package firestore provides a businessapi.Repository backed by Cloud
// Firestore. Businesses live in the "businesses" collection, events in the
// read-only "events" collection; document identifiers are Firestore-assigned.
package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/discover-business/business-api/pkg/businessapi"
)

const (
	businessCollection = "businesses"
	eventCollection    = "events"
)

// Repository implements businessapi.Repository using Cloud Firestore
type Repository struct {
	client *firestore.Client
}

// New creates a new Firestore repository. The caller owns the client and its
// lifecycle.
func New(client *firestore.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) CreateBusiness(ctx context.Context, fields businessapi.Fields) (*businessapi.Business, error) {
	ref, _, err := r.client.Collection(businessCollection).Add(ctx, map[string]interface{}(fields))
	if err != nil {
		return nil, &businessapi.RepositoryError{Op: "create", Err: err}
	}
	return &businessapi.Business{ID: ref.ID, Fields: fields.Clone()}, nil
}

func (r *Repository) ListBusinesses(ctx context.Context) ([]*businessapi.Business, error) {
	iter := r.client.Collection(businessCollection).Documents(ctx)
	defer iter.Stop()

	var result []*businessapi.Business
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, &businessapi.RepositoryError{Op: "list", Err: err}
		}
		result = append(result, &businessapi.Business{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return result, nil
}

func (r *Repository) GetBusiness(ctx context.Context, id string) (*businessapi.Business, error) {
	snap, err := r.client.Collection(businessCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, businessapi.ErrBusinessNotFound
	}
	if err != nil {
		return nil, &businessapi.RepositoryError{Op: "get", ID: id, Err: err}
	}
	return &businessapi.Business{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

// UpdateBusiness reads the document first, merges the supplied fields and
// reads back the post-update state. The check and the write are not atomic;
// a concurrent delete in between surfaces as a write error.
func (r *Repository) UpdateBusiness(ctx context.Context, id string, fields businessapi.Fields) (*businessapi.Business, error) {
	doc := r.client.Collection(businessCollection).Doc(id)

	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, businessapi.ErrBusinessNotFound
		}
		return nil, &businessapi.RepositoryError{Op: "update", ID: id, Err: err}
	}

	if len(fields) > 0 {
		if _, err := doc.Set(ctx, map[string]interface{}(fields), firestore.MergeAll); err != nil {
			return nil, &businessapi.RepositoryError{Op: "update", ID: id, Err: err}
		}
	}

	snap, err := doc.Get(ctx)
	if err != nil {
		return nil, &businessapi.RepositoryError{Op: "update", ID: id, Err: err}
	}
	return &businessapi.Business{ID: snap.Ref.ID, Fields: snap.Data()}, nil
}

func (r *Repository) DeleteBusiness(ctx context.Context, id string) error {
	doc := r.client.Collection(businessCollection).Doc(id)

	if _, err := doc.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return businessapi.ErrBusinessNotFound
		}
		return &businessapi.RepositoryError{Op: "delete", ID: id, Err: err}
	}

	if _, err := doc.Delete(ctx); err != nil {
		return &businessapi.RepositoryError{Op: "delete", ID: id, Err: err}
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]*businessapi.Event, error) {
	iter := r.client.Collection(eventCollection).Documents(ctx)
	defer iter.Stop()

	var result []*businessapi.Event
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, &businessapi.RepositoryError{Op: "list events", Err: err}
		}
		result = append(result, &businessapi.Event{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return result, nil
}
