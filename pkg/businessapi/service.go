package businessapi

import "context"

// Service is the per-operation contract of the business resource API. Each
// operation composes the payload normalizer's output, the attachment
// resolver and the repository.
type Service interface {
	CreateBusiness(ctx context.Context, req SaveBusinessRequest) (*Business, error)
	ListBusinesses(ctx context.Context) ([]*Business, error)
	GetBusiness(ctx context.Context, id string) (*Business, error)
	UpdateBusiness(ctx context.Context, id string, req SaveBusinessRequest) (*Business, error)
	DeleteBusiness(ctx context.Context, id string) error
	ListEvents(ctx context.Context) ([]*Event, error)
}
