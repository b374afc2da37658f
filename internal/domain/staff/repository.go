package staff

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	Create(ctx context.Context, staff *Staff) error
	Get(ctx context.Context, id string) (*Staff, error)
	List(ctx context.Context, filter ListFilter) ([]Staff, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	Delete(ctx context.Context, id string) error
	// ClearClassTeacher unassigns teacherID from every class pointing at it.
	ClearClassTeacher(ctx context.Context, teacherID string) (int64, error)
}

// SchoolStatus is the slice of the tenant registry the directory needs.
type SchoolStatus interface {
	EnsureActive(ctx context.Context, schoolID string) error
}
