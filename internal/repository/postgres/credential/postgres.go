package credential

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"school-sos-go/internal/identity"
)

// PostgresRepository backs the local identity provider.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, credential *identity.Credential) error {
	err := r.db.WithContext(ctx).Create(credential).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return identity.ErrAccountExists
	}
	return err
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*identity.Credential, error) {
	var credential identity.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, identity.ErrAccountNotFound
		}
		return nil, err
	}
	return &credential, nil
}

func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id string, hash []byte) error {
	result := r.db.WithContext(ctx).
		Model(&identity.Credential{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&identity.Credential{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return identity.ErrAccountNotFound
	}
	return nil
}
