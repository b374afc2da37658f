package student

import (
	"time"

	"gorm.io/datatypes"
)

type WristbandStatus string

const (
	WristbandNone            WristbandStatus = "none"
	WristbandNeedsProduction WristbandStatus = "needs_production"
	WristbandProduced        WristbandStatus = "produced"
	WristbandShipped         WristbandStatus = "shipped"
	WristbandActive          WristbandStatus = "active"
)

func (s WristbandStatus) Valid() bool {
	switch s {
	case WristbandNone, WristbandNeedsProduction, WristbandProduced, WristbandShipped, WristbandActive:
		return true
	}
	return false
}

type Medical struct {
	BloodType         string `json:"blood_type,omitempty"`
	Allergies         string `json:"allergies,omitempty"`
	ChronicConditions string `json:"chronic_conditions,omitempty"`
	Medications       string `json:"medications,omitempty"`
	OtherInfo         string `json:"other_info,omitempty"`
}

type EmergencyContact struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
	Phone    string `json:"phone"`
}

// Student keeps SchoolName and ClassName as snapshots taken at write time.
// Slug is the only key exposed on the public path and never changes.
type Student struct {
	ID                string                                `gorm:"type:uuid;primaryKey"`
	TenantID          string                                `gorm:"type:uuid;not null;index"`
	SchoolName        string                                `gorm:"type:text"`
	ClassID           string                                `gorm:"type:uuid;not null;index"`
	ClassName         string                                `gorm:"type:text"`
	Slug              *string                               `gorm:"uniqueIndex"`
	FirstName         string                                `gorm:"not null"`
	LastName          string                                `gorm:"not null"`
	PhotoURL          string                                `gorm:"type:text"`
	Medical           datatypes.JSONType[Medical]           `gorm:"type:jsonb;not null;default:'{}'"`
	EmergencyContacts datatypes.JSONSlice[EmergencyContact] `gorm:"type:jsonb;not null;default:'[]'"`
	WristbandID       string                                `gorm:"type:text"`
	WristbandStatus   WristbandStatus                       `gorm:"type:varchar(32);not null;default:'needs_production'"`
	SchoolNumber      string                                `gorm:"type:text"`
	Notes             string                                `gorm:"type:text"`
	CreatedAt         time.Time                             `gorm:"autoCreateTime"`
	UpdatedAt         time.Time                             `gorm:"autoUpdateTime"`
}

func (Student) TableName() string {
	return "students"
}

func (s Student) PublicSlug() string {
	if s.Slug == nil {
		return ""
	}
	return *s.Slug
}

type NewStudent struct {
	ClassID           string
	FirstName         string
	LastName          string
	Medical           Medical
	EmergencyContacts []EmergencyContact
	WristbandStatus   WristbandStatus
	Notes             string
}

// UpdateStudent has no tenant field: a student never changes school.
// ClassName is kept as is on a class move unless RefreshClassName is set.
type UpdateStudent struct {
	ClassID           *string
	FirstName         *string
	LastName          *string
	Medical           *Medical
	EmergencyContacts *[]EmergencyContact
	Notes             *string
	RefreshClassName  bool
}

// RecordsUpdate carries the administrative fields only admins may change.
type RecordsUpdate struct {
	WristbandID     *string
	WristbandStatus *WristbandStatus
	SchoolNumber    *string
}

type ListFilter struct {
	TenantID string
	ClassID  string
}

// ClassRef is the slice of a class the record store needs to place and
// label a student.
type ClassRef struct {
	ID        string
	TenantID  string
	Name      string
	TeacherID string
}

// PublicProfile is the emergency view served to anonymous callers. It
// carries no internal ids, school number or notes.
type PublicProfile struct {
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	PhotoURL          string             `json:"photo_url,omitempty"`
	ClassName         string             `json:"class_name,omitempty"`
	SchoolName        string             `json:"school_name,omitempty"`
	TeacherName       string             `json:"teacher_name,omitempty"`
	Medical           Medical            `json:"medical"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
}

type BackfillReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	// Skipped counts rows that got a slug elsewhere during the run.
	Skipped int `json:"skipped"`
}
