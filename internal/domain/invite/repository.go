package invite

import (
	"context"
	"time"
)

// Claims are identified by their claimed_at stamp, so a redemption can
// only release or consume the claim it took itself.
type Repository interface {
	Create(ctx context.Context, invite *Invite) error
	GetByTokenHash(ctx context.Context, hash string) (*Invite, error)
	List(ctx context.Context, tenantID string) ([]Invite, error)
	// Claim moves a pending invite, or one whose claim went stale before
	// staleBefore, to claimed. It returns ErrInviteNotFound when another
	// redemption holds or consumed the invite.
	Claim(ctx context.Context, id string, at, staleBefore time.Time) error
	// Release puts a claimed invite back to pending.
	Release(ctx context.Context, id string, claimedAt time.Time) error
	// MarkUsed flips a claimed invite to used and returns ErrInviteNotFound
	// when the claim is no longer held.
	MarkUsed(ctx context.Context, id string, claimedAt time.Time, usedBy string, at time.Time) error
}
