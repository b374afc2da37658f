package school

import "time"

type School struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Name          string    `gorm:"not null"`
	Slug          string    `gorm:"not null;uniqueIndex"`
	Address       string    `gorm:"type:text"`
	Phone         string    `gorm:"type:text"`
	ContactEmail  string    `gorm:"type:text"`
	LogoURL       string    `gorm:"type:text"`
	CoverImageURL string    `gorm:"type:text"`
	Active        bool      `gorm:"not null;default:true"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

type NewSchool struct {
	Name         string
	Slug         string
	Address      string
	Phone        string
	ContactEmail string
}

// UpdateSchool is a partial update; nil fields are left untouched.
// Changing Slug breaks public links built on the old value.
type UpdateSchool struct {
	Name          *string
	Slug          *string
	Address       *string
	Phone         *string
	ContactEmail  *string
	LogoURL       *string
	CoverImageURL *string
	Active        *bool
}

type ListFilter struct {
	ActiveOnly bool
}

type Stats struct {
	SchoolID     string
	StudentCount int64
	AdminCount   int64
	TeacherCount int64
	ClassCount   int64
}
