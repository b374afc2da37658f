package school

import "context"

type Repository interface {
	Create(ctx context.Context, school *School) error
	Get(ctx context.Context, id string) (*School, error)
	GetBySlug(ctx context.Context, slug string) (*School, error)
	List(ctx context.Context, filter ListFilter) ([]School, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	IsSlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	Stats(ctx context.Context, id string) (*Stats, error)
}
