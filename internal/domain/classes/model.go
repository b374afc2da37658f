package classes

import (
	"time"

	"school-sos-go/internal/domain/access"
)

// SchoolClass belongs to exactly one tenant for its whole life. TeacherID
// is the owning side of the class<->teacher reference; the teacher's
// class_ids list is the mirror.
type SchoolClass struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	TenantID    string    `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	GradeLevel  string    `gorm:"type:text"`
	Description string    `gorm:"type:text"`
	TeacherID   *string   `gorm:"type:uuid;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (SchoolClass) TableName() string {
	return "classes"
}

func (c SchoolClass) Teacher() string {
	if c.TeacherID == nil {
		return ""
	}
	return *c.TeacherID
}

// Teacher is the roster's view of a staff record.
type Teacher struct {
	ID       string
	TenantID string
	Role     access.Role
	ClassIDs []string
}

func (t Teacher) HasClass(classID string) bool {
	for _, id := range t.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

type NewClass struct {
	Name        string
	GradeLevel  string
	Description string
	TeacherID   string
}

// UpdateClass leaves nil fields untouched. TeacherID set to "" unassigns.
type UpdateClass struct {
	Name        *string
	GradeLevel  *string
	Description *string
	TeacherID   *string
}

type ListFilter struct {
	TenantID  string
	TeacherID string
}
