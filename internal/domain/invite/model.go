package invite

import "time"

type Status string

const (
	StatusPending Status = "pending"
	// StatusClaimed holds the invite while its redemption registers the
	// admin. A claim older than ClaimTTL counts as abandoned.
	StatusClaimed Status = "claimed"
	StatusUsed    Status = "used"
)

const ClaimTTL = 10 * time.Minute

// Invite stores only the hash of its token. The plain token is handed out
// once, at creation.
type Invite struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  string     `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Email     string     `gorm:"type:text" json:"email,omitempty"`
	TokenHash string     `gorm:"not null;uniqueIndex" json:"-"`
	Status    Status     `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	UsedBy    *string    `gorm:"type:uuid" json:"used_by,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ClaimedAt *time.Time `json:"-"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// Redeemable reports whether the invite may still be claimed at now.
func (i Invite) Redeemable(now time.Time) bool {
	switch i.Status {
	case StatusPending:
		return true
	case StatusClaimed:
		return i.ClaimedAt == nil || !i.ClaimedAt.After(now.Add(-ClaimTTL))
	default:
		return false
	}
}

func (Invite) TableName() string {
	return "invites"
}

type Created struct {
	Invite Invite
	Token  string
}

type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}
