package staff

import (
	"time"

	"gorm.io/datatypes"

	"school-sos-go/internal/domain/access"
)

// Staff is keyed by the identity-provider user id. TenantID is nil for
// owners. ClassIDs mirrors classes.teacher_id and is only meaningful for
// teachers; the class roster keeps both sides in step.
type Staff struct {
	ID        string                      `gorm:"type:uuid;primaryKey"`
	Role      access.Role                 `gorm:"type:varchar(16);not null;index"`
	TenantID  *string                     `gorm:"type:uuid;index"`
	Name      string                      `gorm:"not null"`
	Email     string                      `gorm:"not null;uniqueIndex"`
	Phone     string                      `gorm:"type:text"`
	ClassIDs  datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'"`
	Active    bool                        `gorm:"not null;default:true"`
	CreatedAt time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt time.Time                   `gorm:"autoUpdateTime"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s Staff) Tenant() string {
	if s.TenantID == nil {
		return ""
	}
	return *s.TenantID
}

func (s Staff) Actor() access.Actor {
	actor := access.Actor{ID: s.ID, Role: s.Role, TenantID: s.Tenant()}
	if s.Role == access.RoleTeacher {
		actor.ClassIDs = append([]string(nil), s.ClassIDs...)
	}
	return actor
}

type NewStaff struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type UpdateStaff struct {
	Name   *string
	Phone  *string
	Active *bool
}

type ListFilter struct {
	TenantID string
	Role     access.Role
}
