package staff

import (
	"context"
	"errors"

	"gorm.io/gorm"

	staffdomain "school-sos-go/internal/domain/staff"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(staffdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) Create(ctx context.Context, member *staffdomain.Staff) error {
	err := r.db.WithContext(ctx).Create(member).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return staffdomain.ErrStaffExists
	}
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*staffdomain.Staff, error) {
	var member staffdomain.Staff
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, staffdomain.ErrStaffNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter staffdomain.ListFilter) ([]staffdomain.Staff, error) {
	query := r.db.WithContext(ctx).Model(&staffdomain.Staff{})
	if filter.TenantID != "" {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var members []staffdomain.Staff
	if err := query.Order("name asc, created_at asc").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&staffdomain.Staff{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staffdomain.ErrStaffNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&staffdomain.Staff{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return staffdomain.ErrStaffNotFound
	}
	return nil
}

func (r *PostgresRepository) ClearClassTeacher(ctx context.Context, teacherID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Table("classes").
		Where("teacher_id = ?", teacherID).
		Updates(map[string]any{"teacher_id": nil, "updated_at": gorm.Expr("NOW()")})
	return result.RowsAffected, result.Error
}
