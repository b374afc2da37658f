package common

import (
	"time"

	"school-sos-go/internal/domain/access"
	classesdomain "school-sos-go/internal/domain/classes"
	schooldomain "school-sos-go/internal/domain/school"
	staffdomain "school-sos-go/internal/domain/staff"
	studentdomain "school-sos-go/internal/domain/student"
)

type StaffView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	SchoolID  string    `json:"school_id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	ClassIDs  []string  `json:"class_ids,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewStaffView(member staffdomain.Staff) StaffView {
	view := StaffView{
		ID:        member.ID,
		Role:      string(member.Role),
		SchoolID:  member.Tenant(),
		Name:      member.Name,
		Email:     member.Email,
		Phone:     member.Phone,
		Active:    member.Active,
		CreatedAt: member.CreatedAt,
		UpdatedAt: member.UpdatedAt,
	}
	if member.Role == access.RoleTeacher {
		view.ClassIDs = append([]string{}, member.ClassIDs...)
	}
	return view
}

type SchoolView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	ContactEmail  string    `json:"contact_email,omitempty"`
	LogoURL       string    `json:"logo_url,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewSchoolView(school schooldomain.School) SchoolView {
	return SchoolView{
		ID:            school.ID,
		Name:          school.Name,
		Slug:          school.Slug,
		Address:       school.Address,
		Phone:         school.Phone,
		ContactEmail:  school.ContactEmail,
		LogoURL:       school.LogoURL,
		CoverImageURL: school.CoverImageURL,
		Active:        school.Active,
		CreatedAt:     school.CreatedAt,
		UpdatedAt:     school.UpdatedAt,
	}
}

type ClassView struct {
	ID          string    `json:"id"`
	SchoolID    string    `json:"school_id"`
	Name        string    `json:"name"`
	GradeLevel  string    `json:"grade_level,omitempty"`
	Description string    `json:"description,omitempty"`
	TeacherID   *string   `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewClassView(class classesdomain.SchoolClass) ClassView {
	return ClassView{
		ID:          class.ID,
		SchoolID:    class.TenantID,
		Name:        class.Name,
		GradeLevel:  class.GradeLevel,
		Description: class.Description,
		TeacherID:   class.TeacherID,
		CreatedAt:   class.CreatedAt,
		UpdatedAt:   class.UpdatedAt,
	}
}

type StudentView struct {
	ID                string                           `json:"id"`
	SchoolID          string                           `json:"school_id"`
	SchoolName        string                           `json:"school_name"`
	ClassID           string                           `json:"class_id"`
	ClassName         string                           `json:"class_name"`
	Slug              string                           `json:"slug,omitempty"`
	FirstName         string                           `json:"first_name"`
	LastName          string                           `json:"last_name"`
	PhotoURL          string                           `json:"photo_url,omitempty"`
	Medical           studentdomain.Medical            `json:"medical"`
	EmergencyContacts []studentdomain.EmergencyContact `json:"emergency_contacts"`
	WristbandID       string                           `json:"wristband_id,omitempty"`
	WristbandStatus   string                           `json:"wristband_status"`
	SchoolNumber      string                           `json:"school_number,omitempty"`
	Notes             string                           `json:"notes,omitempty"`
	CreatedAt         time.Time                        `json:"created_at"`
	UpdatedAt         time.Time                        `json:"updated_at"`
}

func NewStudentView(student studentdomain.Student) StudentView {
	contacts := []studentdomain.EmergencyContact(student.EmergencyContacts)
	if contacts == nil {
		contacts = []studentdomain.EmergencyContact{}
	}
	return StudentView{
		ID:                student.ID,
		SchoolID:          student.TenantID,
		SchoolName:        student.SchoolName,
		ClassID:           student.ClassID,
		ClassName:         student.ClassName,
		Slug:              student.PublicSlug(),
		FirstName:         student.FirstName,
		LastName:          student.LastName,
		PhotoURL:          student.PhotoURL,
		Medical:           student.Medical.Data(),
		EmergencyContacts: contacts,
		WristbandID:       student.WristbandID,
		WristbandStatus:   string(student.WristbandStatus),
		SchoolNumber:      student.SchoolNumber,
		Notes:             student.Notes,
		CreatedAt:         student.CreatedAt,
		UpdatedAt:         student.UpdatedAt,
	}
}
