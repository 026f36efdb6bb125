package businessapi

import (
	"context"
	"fmt"
)

const defaultUploadConcurrency = 4

// service implements the Service interface
type service struct {
	repository     Repository
	blobStore      BlobStore
	placeholderURL string
	uploadLimit    int
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the document repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the attachment storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithPlaceholderImageURL overrides the default placeholder assigned to
// imageUrl when a business is created without an image.
func WithPlaceholderImageURL(url string) Option {
	return func(s *service) {
		s.placeholderURL = url
	}
}

// WithUploadConcurrency bounds the per-request attachment upload fan-out.
func WithUploadConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.uploadLimit = n
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		placeholderURL: DefaultPlaceholderImageURL,
		uploadLimit:    defaultUploadConcurrency,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

func (s *service) CreateBusiness(ctx context.Context, req SaveBusinessRequest) (*Business, error) {
	fields := req.Fields
	if fields == nil {
		fields = make(Fields)
	}

	if err := s.resolveAttachments(ctx, fields, req.Image, req.Gallery); err != nil {
		return nil, err
	}

	// imageUrl is always present after normalization; productImages is
	// always a well-formed list.
	if url, _ := fields[FieldImageURL].(string); url == "" {
		fields[FieldImageURL] = s.placeholderURL
	}
	if _, ok := fields[FieldProductImages]; !ok {
		fields[FieldProductImages] = []string{}
	}

	return s.repository.CreateBusiness(ctx, fields)
}

func (s *service) ListBusinesses(ctx context.Context) ([]*Business, error) {
	return s.repository.ListBusinesses(ctx)
}

func (s *service) GetBusiness(ctx context.Context, id string) (*Business, error) {
	return s.repository.GetBusiness(ctx, id)
}

// UpdateBusiness merges the supplied fields into the existing document. When
// the request carries no new attachments, the stored imageUrl and
// productImages stay untouched; an unrelated field update never erases
// previously resolved uploads.
func (s *service) UpdateBusiness(ctx context.Context, id string, req SaveBusinessRequest) (*Business, error) {
	if _, err := s.repository.GetBusiness(ctx, id); err != nil {
		return nil, err
	}

	fields := req.Fields
	if fields == nil {
		fields = make(Fields)
	}

	if err := s.resolveAttachments(ctx, fields, req.Image, req.Gallery); err != nil {
		return nil, err
	}

	return s.repository.UpdateBusiness(ctx, id, fields)
}

func (s *service) DeleteBusiness(ctx context.Context, id string) error {
	if _, err := s.repository.GetBusiness(ctx, id); err != nil {
		return err
	}
	return s.repository.DeleteBusiness(ctx, id)
}

func (s *service) ListEvents(ctx context.Context) ([]*Event, error) {
	return s.repository.ListEvents(ctx)
}
