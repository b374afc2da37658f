package classes

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"school-sos-go/internal/domain/access"
	classesdomain "school-sos-go/internal/domain/classes"
	staffdomain "school-sos-go/internal/domain/staff"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(classesdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Create(ctx context.Context, class *classesdomain.SchoolClass) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*classesdomain.SchoolClass, error) {
	var class classesdomain.SchoolClass
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&class).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, classesdomain.ErrClassNotFound
		}
		return nil, err
	}
	return &class, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter classesdomain.ListFilter) ([]classesdomain.SchoolClass, error) {
	query := r.db.WithContext(ctx).Model(&classesdomain.SchoolClass{})
	if filter.TenantID != "" {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.TeacherID != "" {
		query = query.Where("teacher_id = ?", filter.TeacherID)
	}

	var classes []classesdomain.SchoolClass
	if err := query.Order("name asc, created_at asc").Find(&classes).Error; err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&classesdomain.SchoolClass{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return classesdomain.ErrClassNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&classesdomain.SchoolClass{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return classesdomain.ErrClassNotFound
	}
	return nil
}

func (r *PostgresRepository) CountStudents(ctx context.Context, classID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("students").Where("class_id = ?", classID).Count(&count).Error
	return count, err
}

func (r *PostgresRepository) GetTeacher(ctx context.Context, id string) (*classesdomain.Teacher, error) {
	var member staffdomain.Staff
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, classesdomain.ErrTeacherNotFound
		}
		return nil, err
	}
	teacher := toTeacher(member)
	return &teacher, nil
}

func (r *PostgresRepository) ListTeachers(ctx context.Context, tenantID string) ([]classesdomain.Teacher, error) {
	query := r.db.WithContext(ctx).Model(&staffdomain.Staff{}).Where("role = ?", access.RoleTeacher)
	if tenantID != "" {
		query = query.Where("tenant_id = ?", tenantID)
	}

	var members []staffdomain.Staff
	if err := query.Order("id asc").Find(&members).Error; err != nil {
		return nil, err
	}
	teachers := make([]classesdomain.Teacher, 0, len(members))
	for _, member := range members {
		teachers = append(teachers, toTeacher(member))
	}
	return teachers, nil
}

// AddTeacherClass appends classID to staff.class_ids unless present. The
// single UPDATE keeps concurrent appends from losing each other.
func (r *PostgresRepository) AddTeacherClass(ctx context.Context, teacherID, classID string) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE staff
		SET class_ids = CASE
				WHEN class_ids @> jsonb_build_array(?::text) THEN class_ids
				ELSE class_ids || jsonb_build_array(?::text)
			END,
			updated_at = NOW()
		WHERE id = ?`, classID, classID, teacherID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return classesdomain.ErrTeacherNotFound
	}
	return nil
}

// RemoveTeacherClass is a no-op for teachers that are already gone.
func (r *PostgresRepository) RemoveTeacherClass(ctx context.Context, teacherID, classID string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE staff
		SET class_ids = class_ids - ?::text,
			updated_at = NOW()
		WHERE id = ?`, classID, teacherID).Error
}

func (r *PostgresRepository) SetTeacherClasses(ctx context.Context, teacherID string, classIDs []string) error {
	result := r.db.WithContext(ctx).
		Model(&staffdomain.Staff{}).
		Where("id = ?", teacherID).
		Update("class_ids", datatypes.JSONSlice[string](classIDs))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return classesdomain.ErrTeacherNotFound
	}
	return nil
}

func toTeacher(member staffdomain.Staff) classesdomain.Teacher {
	classIDs := []string(member.ClassIDs)
	if classIDs == nil {
		classIDs = []string{}
	}
	return classesdomain.Teacher{
		ID:       member.ID,
		TenantID: member.Tenant(),
		Role:     member.Role,
		ClassIDs: classIDs,
	}
}
