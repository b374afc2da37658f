package invite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	invitedomain "school-sos-go/internal/domain/invite"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, invite *invitedomain.Invite) error {
	return r.db.WithContext(ctx).Create(invite).Error
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, hash string) (*invitedomain.Invite, error) {
	var invite invitedomain.Invite
	if err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invitedomain.ErrInviteNotFound
		}
		return nil, err
	}
	return &invite, nil
}

func (r *PostgresRepository) List(ctx context.Context, tenantID string) ([]invitedomain.Invite, error) {
	var invites []invitedomain.Invite
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// Claim is a conditional update; of two redemptions racing for one
// invite only one matches the row.
func (r *PostgresRepository) Claim(ctx context.Context, id string, at, staleBefore time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&invitedomain.Invite{}).
		Where("id = ?", id).
		Where(r.db.
			Where("status = ?", invitedomain.StatusPending).
			Or("status = ? AND (claimed_at IS NULL OR claimed_at <= ?)", invitedomain.StatusClaimed, staleBefore)).
		Updates(map[string]any{
			"status":     invitedomain.StatusClaimed,
			"claimed_at": at,
		})
	return affectedOne(result)
}

func (r *PostgresRepository) Release(ctx context.Context, id string, claimedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&invitedomain.Invite{}).
		Where("id = ? AND status = ? AND claimed_at = ?", id, invitedomain.StatusClaimed, claimedAt).
		Updates(map[string]any{
			"status":     invitedomain.StatusPending,
			"claimed_at": nil,
		})
	return affectedOne(result)
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, claimedAt time.Time, usedBy string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&invitedomain.Invite{}).
		Where("id = ? AND status = ? AND claimed_at = ?", id, invitedomain.StatusClaimed, claimedAt).
		Updates(map[string]any{
			"status":  invitedomain.StatusUsed,
			"used_by": usedBy,
			"used_at": at,
		})
	return affectedOne(result)
}

func affectedOne(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invitedomain.ErrInviteNotFound
	}
	return nil
}
