package student

import (
	"context"
	"io"
)

type Repository interface {
	// Create returns ErrSlugTaken when the slug unique index rejects the row.
	Create(ctx context.Context, student *Student) error
	Get(ctx context.Context, id string) (*Student, error)
	GetBySlug(ctx context.Context, slug string) (*Student, error)
	List(ctx context.Context, filter ListFilter) ([]Student, error)
	ListWithoutSlug(ctx context.Context) ([]Student, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	// SetSlug only writes when the row has no slug yet and returns
	// ErrSlugAlreadySet otherwise.
	SetSlug(ctx context.Context, id, slug string) error
	Delete(ctx context.Context, id string) error

	GetClass(ctx context.Context, id string) (*ClassRef, error)
	SchoolName(ctx context.Context, tenantID string) (string, error)
	TeacherName(ctx context.Context, teacherID string) (string, error)
}

// BlobStore holds student photos under students/{id}/{filename}.
type BlobStore interface {
	Put(ctx context.Context, path, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}
