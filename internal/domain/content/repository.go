package content

import "context"

// Repository persists pages keyed by page name. Implementations return
// ErrNotFound for a missing page and wrap any backend failure with
// ErrRepositoryUnavailable. Put is last-write-wins; Create fails with
// ErrDuplicatePage when the name is taken.
type Repository interface {
	Get(ctx context.Context, name PageName) (PageContent, error)
	Create(ctx context.Context, page PageContent) (PageContent, error)
	Put(ctx context.Context, page PageContent) (PageContent, error)
	Delete(ctx context.Context, name PageName) error
	List(ctx context.Context) ([]PageContent, error)
}
