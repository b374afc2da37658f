package student

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"school-sos-go/internal/blob"
	"school-sos-go/internal/domain/access"
	"school-sos-go/pkg/logger"
	"school-sos-go/pkg/slugify"
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type Service struct {
	repo   Repository
	blobs  BlobStore
	log    logger.Logger
	suffix func() (string, error)
}

func NewService(repo Repository, blobs BlobStore, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, blobs: blobs, log: log, suffix: randomSuffix}
}

// Create places a new student in one of the teacher's own classes. Class
// and school names are copied onto the record.
func (s *Service) Create(ctx context.Context, actor access.Actor, input NewStudent) (*Student, error) {
	classID := strings.TrimSpace(input.ClassID)
	if classID == "" {
		return nil, access.Invalid("class_id", "is required")
	}
	if !access.CanManageStudents(actor.Role, actor.StudentScope(actor.TenantID, classID)) {
		return nil, access.ErrForbidden
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" {
		return nil, access.Invalid("first_name", "is required")
	}
	if lastName == "" {
		return nil, access.Invalid("last_name", "is required")
	}
	status := input.WristbandStatus
	if status == "" {
		status = WristbandNeedsProduction
	}
	if !status.Valid() {
		return nil, access.Invalid("wristband_status", "unknown status")
	}

	class, err := s.ownClass(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	schoolName, err := s.repo.SchoolName(ctx, class.TenantID)
	if err != nil {
		return nil, err
	}

	student := Student{
		ID:                uuid.NewString(),
		TenantID:          class.TenantID,
		SchoolName:        schoolName,
		ClassID:           class.ID,
		ClassName:         class.Name,
		FirstName:         firstName,
		LastName:          lastName,
		Medical:           datatypes.NewJSONType(trimMedical(input.Medical)),
		EmergencyContacts: cleanContacts(input.EmergencyContacts),
		WristbandStatus:   status,
		Notes:             strings.TrimSpace(input.Notes),
	}

	base := slugBase(firstName, lastName)
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		suffix, err := s.suffix()
		if err != nil {
			return nil, fmt.Errorf("student slug: %w", err)
		}
		slug := base + "-" + suffix
		student.Slug = &slug

		err = s.repo.Create(ctx, &student)
		if err == nil {
			return &student, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return nil, err
		}
		s.log.Debug("student.create: slug collision, regenerating", "attempt", attempt)
	}
	return nil, ErrSlugExhausted
}

// Update edits a student in the teacher's own class. A class move keeps
// the old class name snapshot unless RefreshClassName is set.
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, input UpdateStudent) (*Student, error) {
	if actor.Role != access.RoleTeacher {
		return nil, access.ErrForbidden
	}
	current, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	targetClass := current.ClassID
	if input.ClassID != nil && strings.TrimSpace(*input.ClassID) != current.ClassID {
		targetClass = strings.TrimSpace(*input.ClassID)
		if !access.CanManageStudents(actor.Role, actor.StudentScope(current.TenantID, targetClass)) {
			return nil, access.ErrForbidden
		}
		class, err := s.ownClass(ctx, actor, targetClass)
		if err != nil {
			return nil, err
		}
		updates["class_id"] = class.ID
		if input.RefreshClassName {
			updates["class_name"] = class.Name
		}
	} else if input.RefreshClassName {
		class, err := s.repo.GetClass(ctx, targetClass)
		if err != nil {
			return nil, err
		}
		updates["class_name"] = class.Name
	}

	if input.FirstName != nil {
		value := strings.TrimSpace(*input.FirstName)
		if value == "" {
			return nil, access.Invalid("first_name", "must not be empty")
		}
		updates["first_name"] = value
	}
	if input.LastName != nil {
		value := strings.TrimSpace(*input.LastName)
		if value == "" {
			return nil, access.Invalid("last_name", "must not be empty")
		}
		updates["last_name"] = value
	}
	if input.Medical != nil {
		updates["medical"] = datatypes.NewJSONType(trimMedical(*input.Medical))
	}
	if input.EmergencyContacts != nil {
		updates["emergency_contacts"] = cleanContacts(*input.EmergencyContacts)
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}

	if len(updates) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateRecords changes wristband and school number fields. Admins of the
// student's school are the only callers allowed.
func (s *Service) UpdateRecords(ctx context.Context, actor access.Actor, id string, input RecordsUpdate) (*Student, error) {
	if actor.Role != access.RoleAdmin {
		return nil, access.ErrForbidden
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanManageStudentRecords(actor.Role, actor.StudentScope(current.TenantID, current.ClassID)) {
		return nil, ErrStudentNotFound
	}

	updates := make(map[string]any)
	if input.WristbandID != nil {
		updates["wristband_id"] = strings.TrimSpace(*input.WristbandID)
	}
	if input.WristbandStatus != nil {
		if !input.WristbandStatus.Valid() {
			return nil, access.Invalid("wristband_status", "unknown status")
		}
		updates["wristband_status"] = *input.WristbandStatus
	}
	if input.SchoolNumber != nil {
		updates["school_number"] = strings.TrimSpace(*input.SchoolNumber)
	}
	if len(updates) == 0 {
		return current, nil
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes the record first; the photo is cleaned up best-effort and
// a failure there only leaves an unreferenced blob.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if actor.Role != access.RoleTeacher {
		return access.ErrForbidden
	}
	current, err := s.manageable(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if current.PhotoURL != "" && s.blobs != nil {
		if err := s.blobs.Delete(ctx, current.PhotoURL); err != nil {
			s.log.InternalError("student.delete: photo left behind", err, "student_id", id, "photo_url", current.PhotoURL)
		}
	}
	return nil
}

// UploadPhoto stores the photo at students/{id}/{filename}. The path only
// depends on the student and file name, so a retried upload overwrites
// rather than duplicates.
func (s *Service) UploadPhoto(ctx context.Context, actor access.Actor, id, filename, contentType string, body io.Reader) (*Student, error) {
	if actor.Role != access.RoleTeacher {
		return nil, access.ErrForbidden
	}
	name := sanitizeFilename(filename)
	if name == "" {
		return nil, access.Invalid("filename", "is required")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, access.Invalid("content_type", "must be an image")
	}
	current, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, access.Upstream("blob.put", errors.New("blob store not configured"))
	}

	url, err := s.blobs.Put(ctx, PhotoPath(id, name), contentType, body)
	if errors.Is(err, blob.ErrTooLarge) {
		return nil, access.Invalid("photo", "is too large")
	}
	if err != nil {
		return nil, access.Upstream("blob.put", err)
	}
	if err := s.repo.Update(ctx, id, map[string]any{"photo_url": url}); err != nil {
		return nil, err
	}
	if current.PhotoURL != "" && current.PhotoURL != url {
		if err := s.blobs.Delete(ctx, current.PhotoURL); err != nil {
			s.log.InternalError("student.photo: previous photo left behind", err, "student_id", id)
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*Student, error) {
	student, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanReadStudents(actor.Role, actor.StudentScope(student.TenantID, student.ClassID)) {
		return nil, ErrStudentNotFound
	}
	return student, nil
}

// ListBySchool returns the students of a school the actor may read.
// Teachers get the students of their own classes only.
func (s *Service) ListBySchool(ctx context.Context, actor access.Actor, tenantID string) ([]Student, error) {
	switch actor.Role {
	case access.RoleOwner:
		if tenantID == "" {
			return nil, access.Invalid("school_id", "is required")
		}
	case access.RoleAdmin, access.RoleTeacher:
		if tenantID == "" {
			tenantID = actor.TenantID
		}
		if !actor.SameTenant(tenantID) {
			return nil, fmt.Errorf("school %w", access.ErrNotFound)
		}
	default:
		return nil, access.ErrForbidden
	}

	students, err := s.repo.List(ctx, ListFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return visible(actor, students), nil
}

func (s *Service) ListByClass(ctx context.Context, actor access.Actor, classID string) ([]Student, error) {
	if actor.Role == access.RoleTeacher && !actor.TeachesClass(classID) {
		return nil, access.ErrForbidden
	}
	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !access.CanReadStudents(actor.Role, actor.StudentScope(class.TenantID, class.ID)) {
		return nil, ErrClassNotFound
	}

	students, err := s.repo.List(ctx, ListFilter{TenantID: class.TenantID, ClassID: class.ID})
	if err != nil {
		return nil, err
	}
	return visible(actor, students), nil
}

// GetPublicProfile is the only anonymous read. It resolves the exact slug
// and projects the record down to the emergency view.
func (s *Service) GetPublicProfile(ctx context.Context, slug string) (*PublicProfile, error) {
	if !slugify.Valid(slug) {
		return nil, ErrStudentNotFound
	}
	student, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if student.PublicSlug() != slug {
		return nil, ErrStudentNotFound
	}

	profile := &PublicProfile{
		FirstName:         student.FirstName,
		LastName:          student.LastName,
		PhotoURL:          student.PhotoURL,
		ClassName:         student.ClassName,
		SchoolName:        student.SchoolName,
		Medical:           student.Medical.Data(),
		EmergencyContacts: append([]EmergencyContact{}, student.EmergencyContacts...),
	}
	if profile.SchoolName == "" {
		if name, err := s.repo.SchoolName(ctx, student.TenantID); err == nil {
			profile.SchoolName = name
		}
	}
	if class, err := s.repo.GetClass(ctx, student.ClassID); err == nil && class.TeacherID != "" {
		if name, err := s.repo.TeacherName(ctx, class.TeacherID); err == nil {
			profile.TeacherName = name
		}
	} else if err != nil && !errors.Is(err, access.ErrNotFound) {
		s.log.Warn("student.public: teacher name lookup failed", "error", err)
	}
	return profile, nil
}

// BackfillSlugs gives a slug to every record created before slugs existed.
func (s *Service) BackfillSlugs(ctx context.Context, actor access.Actor) (*BackfillReport, error) {
	if !access.CanManageSchools(actor.Role) {
		return nil, access.ErrForbidden
	}
	return s.BackfillSlugsUnchecked(ctx)
}

func (s *Service) BackfillSlugsUnchecked(ctx context.Context) (*BackfillReport, error) {
	students, err := s.repo.ListWithoutSlug(ctx)
	if err != nil {
		return nil, err
	}
	report := &BackfillReport{Scanned: len(students)}
	for _, student := range students {
		err := s.assignSlug(ctx, student)
		if errors.Is(err, ErrSlugAlreadySet) {
			report.Skipped++
			continue
		}
		if err != nil {
			return report, err
		}
		report.Updated++
	}
	if report.Updated > 0 {
		s.log.Info("student.backfill: slugs assigned", "count", report.Updated)
	}
	return report, nil
}

func (s *Service) assignSlug(ctx context.Context, student Student) error {
	base := slugBase(student.FirstName, student.LastName)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		suffix, err := s.suffix()
		if err != nil {
			return fmt.Errorf("student slug: %w", err)
		}
		err = s.repo.SetSlug(ctx, student.ID, base+"-"+suffix)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return err
		}
	}
	return ErrSlugExhausted
}

// manageable loads a student for a write. Other schools read as missing;
// another class of the same school is an explicit denial.
func (s *Service) manageable(ctx context.Context, actor access.Actor, id string) (*Student, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameTenant(current.TenantID) {
		return nil, ErrStudentNotFound
	}
	if !access.CanManageStudents(actor.Role, actor.StudentScope(current.TenantID, current.ClassID)) {
		return nil, access.ErrForbidden
	}
	return current, nil
}

// ownClass confirms the class belongs to the actor's school and is taught
// by the actor now, not just according to a cached actor.
func (s *Service) ownClass(ctx context.Context, actor access.Actor, classID string) (*ClassRef, error) {
	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !actor.SameTenant(class.TenantID) {
		return nil, ErrClassNotFound
	}
	if class.TeacherID != actor.ID {
		return nil, access.ErrForbidden
	}
	return class, nil
}

func PhotoPath(studentID, filename string) string {
	return "students/" + studentID + "/" + filename
}

func sanitizeFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Trim(unsafeFilename.ReplaceAllString(name, "_"), "._")
	return name
}

func visible(actor access.Actor, students []Student) []Student {
	result := make([]Student, 0, len(students))
	for _, student := range students {
		if access.CanReadStudents(actor.Role, actor.StudentScope(student.TenantID, student.ClassID)) {
			result = append(result, student)
		}
	}
	return result
}

func trimMedical(m Medical) Medical {
	return Medical{
		BloodType:         strings.TrimSpace(m.BloodType),
		Allergies:         strings.TrimSpace(m.Allergies),
		ChronicConditions: strings.TrimSpace(m.ChronicConditions),
		Medications:       strings.TrimSpace(m.Medications),
		OtherInfo:         strings.TrimSpace(m.OtherInfo),
	}
}

// cleanContacts keeps order and drops entries with neither name nor phone.
func cleanContacts(contacts []EmergencyContact) datatypes.JSONSlice[EmergencyContact] {
	result := make(datatypes.JSONSlice[EmergencyContact], 0, len(contacts))
	for _, contact := range contacts {
		contact = EmergencyContact{
			Name:     strings.TrimSpace(contact.Name),
			Relation: strings.TrimSpace(contact.Relation),
			Phone:    strings.TrimSpace(contact.Phone),
		}
		if contact.Name == "" && contact.Phone == "" {
			continue
		}
		result = append(result, contact)
	}
	return result
}
