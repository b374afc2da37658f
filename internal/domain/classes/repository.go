package classes

import "context"

// Repository covers the classes table and the teacher side of the
// reference held in staff.class_ids.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error
	Create(ctx context.Context, class *SchoolClass) error
	Get(ctx context.Context, id string) (*SchoolClass, error)
	// List returns every class when filter.TenantID is empty.
	List(ctx context.Context, filter ListFilter) ([]SchoolClass, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	Delete(ctx context.Context, id string) error
	CountStudents(ctx context.Context, classID string) (int64, error)

	GetTeacher(ctx context.Context, id string) (*Teacher, error)
	// ListTeachers returns every teacher when tenantID is empty.
	ListTeachers(ctx context.Context, tenantID string) ([]Teacher, error)
	AddTeacherClass(ctx context.Context, teacherID, classID string) error
	RemoveTeacherClass(ctx context.Context, teacherID, classID string) error
	SetTeacherClasses(ctx context.Context, teacherID string, classIDs []string) error
}

// Invalidator drops cached actors whose class ids changed.
type Invalidator interface {
	Invalidate(ctx context.Context, staffID string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) {}
