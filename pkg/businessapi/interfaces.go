package businessapi

import "context"

// BlobStore defines the interface for attachment storage backends. Upload
// durably stores the attachment and returns a stable, publicly resolvable
// URL. A backend may transform the blob (for example a bounding-box resize of
// images) before storing it; that is backend policy, not a caller concern.
type BlobStore interface {
	Upload(ctx context.Context, att Attachment) (string, error)
}

// Repository defines the interface for business document persistence plus the
// read-only events collection.
//
// UpdateBusiness and DeleteBusiness require the document to exist and return
// ErrBusinessNotFound otherwise. The existence check is not transactional
// with the subsequent write; a concurrent delete between check and write is
// an accepted race.
type Repository interface {
	// CreateBusiness inserts a new document and returns it with the
	// store-assigned identifier.
	CreateBusiness(ctx context.Context, fields Fields) (*Business, error)

	// ListBusinesses returns every business document in store-native order.
	ListBusinesses(ctx context.Context) ([]*Business, error)

	// GetBusiness returns the document or ErrBusinessNotFound.
	GetBusiness(ctx context.Context, id string) (*Business, error)

	// UpdateBusiness merges the supplied fields into the existing document
	// (field-level overwrite, not full replace) and returns the post-update
	// document.
	UpdateBusiness(ctx context.Context, id string, fields Fields) (*Business, error)

	// DeleteBusiness removes the document.
	DeleteBusiness(ctx context.Context, id string) error

	// ListEvents enumerates the events collection without normalization.
	ListEvents(ctx context.Context) ([]*Event, error)
}
