package student

import (
	"context"
	"errors"

	"gorm.io/gorm"

	studentdomain "school-sos-go/internal/domain/student"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, student *studentdomain.Student) error {
	err := r.db.WithContext(ctx).Create(student).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return studentdomain.ErrSlugTaken
	}
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*studentdomain.Student, error) {
	var student studentdomain.Student
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, studentdomain.ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*studentdomain.Student, error) {
	var student studentdomain.Student
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, studentdomain.ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter studentdomain.ListFilter) ([]studentdomain.Student, error) {
	query := r.db.WithContext(ctx).Model(&studentdomain.Student{})
	if filter.TenantID != "" {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.ClassID != "" {
		query = query.Where("class_id = ?", filter.ClassID)
	}

	var students []studentdomain.Student
	if err := query.Order("last_name asc, first_name asc").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *PostgresRepository) ListWithoutSlug(ctx context.Context) ([]studentdomain.Student, error) {
	var students []studentdomain.Student
	if err := r.db.WithContext(ctx).
		Where("slug IS NULL OR slug = ''").
		Order("created_at asc").
		Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	delete(updates, "tenant_id")
	result := r.db.WithContext(ctx).
		Model(&studentdomain.Student{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return studentdomain.ErrStudentNotFound
	}
	return nil
}

func (r *PostgresRepository) SetSlug(ctx context.Context, id, slug string) error {
	result := r.db.WithContext(ctx).
		Model(&studentdomain.Student{}).
		Where("id = ? AND (slug IS NULL OR slug = '')", id).
		Update("slug", slug)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return studentdomain.ErrSlugTaken
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return studentdomain.ErrSlugAlreadySet
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&studentdomain.Student{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return studentdomain.ErrStudentNotFound
	}
	return nil
}

func (r *PostgresRepository) GetClass(ctx context.Context, id string) (*studentdomain.ClassRef, error) {
	var row struct {
		ID        string
		TenantID  string
		Name      string
		TeacherID *string
	}
	result := r.db.WithContext(ctx).
		Table("classes").
		Select("id, tenant_id, name, teacher_id").
		Where("id = ?", id).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, studentdomain.ErrClassNotFound
	}

	class := studentdomain.ClassRef{ID: row.ID, TenantID: row.TenantID, Name: row.Name}
	if row.TeacherID != nil {
		class.TeacherID = *row.TeacherID
	}
	return &class, nil
}

func (r *PostgresRepository) SchoolName(ctx context.Context, tenantID string) (string, error) {
	return r.name(ctx, "schools", tenantID)
}

func (r *PostgresRepository) TeacherName(ctx context.Context, teacherID string) (string, error) {
	return r.name(ctx, "staff", teacherID)
}

func (r *PostgresRepository) name(ctx context.Context, table, id string) (string, error) {
	var names []string
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		Limit(1).
		Pluck("name", &names).Error; err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}
