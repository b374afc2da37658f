package school

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"school-sos-go/internal/domain/access"
	schooldomain "school-sos-go/internal/domain/school"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, school *schooldomain.School) error {
	err := r.db.WithContext(ctx).Create(school).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return schooldomain.ErrSlugTaken
	}
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*schooldomain.School, error) {
	var school schooldomain.School
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, schooldomain.ErrSchoolNotFound
		}
		return nil, err
	}
	return &school, nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*schooldomain.School, error) {
	var school schooldomain.School
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, schooldomain.ErrSchoolNotFound
		}
		return nil, err
	}
	return &school, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter schooldomain.ListFilter) ([]schooldomain.School, error) {
	query := r.db.WithContext(ctx).Model(&schooldomain.School{})
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var schools []schooldomain.School
	if err := query.Order("name asc").Find(&schools).Error; err != nil {
		return nil, err
	}
	return schools, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&schooldomain.School{}).
		Where("id = ?", id).
		Updates(updates)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return schooldomain.ErrSlugTaken
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return schooldomain.ErrSchoolNotFound
	}
	return nil
}

func (r *PostgresRepository) IsSlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&schooldomain.School{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresRepository) Stats(ctx context.Context, id string) (*schooldomain.Stats, error) {
	stats := schooldomain.Stats{SchoolID: id}
	db := r.db.WithContext(ctx)

	if err := db.Table("students").Where("tenant_id = ?", id).Count(&stats.StudentCount).Error; err != nil {
		return nil, err
	}
	if err := db.Table("classes").Where("tenant_id = ?", id).Count(&stats.ClassCount).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		Role  access.Role
		Total int64
	}
	if err := db.Table("staff").
		Select("role, COUNT(*) AS total").
		Where("tenant_id = ?", id).
		Group("role").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		switch row.Role {
		case access.RoleAdmin:
			stats.AdminCount = row.Total
		case access.RoleTeacher:
			stats.TeacherCount = row.Total
		}
	}
	return &stats, nil
}
