package classes

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"school-sos-go/internal/domain/access"
	"school-sos-go/pkg/logger"
)

type Service struct {
	repo        Repository
	invalidator Invalidator
	log         logger.Logger
}

func NewService(repo Repository, invalidator Invalidator, log logger.Logger) *Service {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, invalidator: invalidator, log: log}
}

// List returns the classes visible to the actor. Admins and teachers are
// pinned to their own school; teachers only see classes they teach.
func (s *Service) List(ctx context.Context, actor access.Actor, filter ListFilter) ([]SchoolClass, error) {
	switch actor.Role {
	case access.RoleOwner:
		if filter.TenantID == "" {
			return nil, access.Invalid("school_id", "is required")
		}
	case access.RoleAdmin:
		filter.TenantID = actor.TenantID
	case access.RoleTeacher:
		filter.TenantID = actor.TenantID
		filter.TeacherID = actor.ID
	default:
		return nil, access.ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*SchoolClass, error) {
	class, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, class) {
		return nil, ErrClassNotFound
	}
	return class, nil
}

func (s *Service) Create(ctx context.Context, actor access.Actor, input NewClass) (*SchoolClass, error) {
	if !access.CanManageClasses(actor.Role) {
		return nil, access.ErrForbidden
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, access.Invalid("name", "is required")
	}

	class := SchoolClass{
		ID:          uuid.NewString(),
		TenantID:    actor.TenantID,
		Name:        name,
		GradeLevel:  strings.TrimSpace(input.GradeLevel),
		Description: strings.TrimSpace(input.Description),
	}
	teacherID := strings.TrimSpace(input.TeacherID)
	if teacherID != "" {
		if err := s.ensureTeacher(ctx, actor.TenantID, teacherID); err != nil {
			return nil, err
		}
		class.TeacherID = &teacherID
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Create(ctx, &class); err != nil {
			return err
		}
		if teacherID != "" {
			return tx.AddTeacherClass(ctx, teacherID, class.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, teacherID)
	return &class, nil
}

// Update renames or reassigns a class. A teacher change detaches the old
// teacher, attaches the new one and then writes the class, always in that
// order; the reconciler repairs a run that stops half way. Renaming does
// not touch the class name snapshot on students.
func (s *Service) Update(ctx context.Context, actor access.Actor, id string, input UpdateClass) (*SchoolClass, error) {
	if !access.CanManageClasses(actor.Role) {
		return nil, access.ErrForbidden
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.SameTenant(current.TenantID) {
		return nil, ErrClassNotFound
	}

	updates := make(map[string]any)
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, access.Invalid("name", "must not be empty")
		}
		updates["name"] = name
	}
	if input.GradeLevel != nil {
		updates["grade_level"] = strings.TrimSpace(*input.GradeLevel)
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}

	oldTeacher := current.Teacher()
	newTeacher := oldTeacher
	if input.TeacherID != nil {
		newTeacher = strings.TrimSpace(*input.TeacherID)
	}
	teacherChanged := newTeacher != oldTeacher
	if teacherChanged {
		if newTeacher != "" {
			if err := s.ensureTeacher(ctx, current.TenantID, newTeacher); err != nil {
				return nil, err
			}
			updates["teacher_id"] = newTeacher
		} else {
			updates["teacher_id"] = nil
		}
	}

	if len(updates) == 0 {
		return current, nil
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if teacherChanged {
			if oldTeacher != "" {
				if err := tx.RemoveTeacherClass(ctx, oldTeacher, id); err != nil {
					return err
				}
			}
			if newTeacher != "" {
				if err := tx.AddTeacherClass(ctx, newTeacher, id); err != nil {
					return err
				}
			}
		}
		return tx.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, err
	}
	if teacherChanged {
		s.invalidate(ctx, oldTeacher, newTeacher)
		s.log.Info("classes.update: teacher reassigned", "class_id", id, "from", oldTeacher, "to", newTeacher)
	}
	return s.repo.Get(ctx, id)
}

// Delete refuses classes that still hold students; their class id would
// dangle otherwise.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	if !access.CanManageClasses(actor.Role) {
		return access.ErrForbidden
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.SameTenant(current.TenantID) {
		return ErrClassNotFound
	}
	students, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return err
	}
	if students > 0 {
		return ErrClassHasStudents
	}

	teacherID := current.Teacher()
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if teacherID != "" {
			if err := tx.RemoveTeacherClass(ctx, teacherID, id); err != nil {
				return err
			}
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, teacherID)
	return nil
}

// AssignTeacherClasses replaces the set of classes a teacher owns. Classes
// taken from another teacher are detached from that teacher first.
func (s *Service) AssignTeacherClasses(ctx context.Context, actor access.Actor, teacherID string, classIDs []string) (*Teacher, error) {
	if !access.CanManageClasses(actor.Role) {
		return nil, access.ErrForbidden
	}
	teacher, err := s.repo.GetTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if teacher.Role != access.RoleTeacher || !actor.SameTenant(teacher.TenantID) {
		return nil, ErrTeacherNotFound
	}

	wanted := dedupe(classIDs)
	classes := make(map[string]*SchoolClass, len(wanted))
	for _, classID := range wanted {
		class, err := s.repo.Get(ctx, classID)
		if err != nil {
			if errors.Is(err, ErrClassNotFound) {
				return nil, access.Invalid("class_ids", "unknown class "+classID)
			}
			return nil, err
		}
		if class.TenantID != teacher.TenantID {
			return nil, access.Invalid("class_ids", "unknown class "+classID)
		}
		classes[classID] = class
	}

	keep := make(map[string]bool, len(wanted))
	for _, classID := range wanted {
		keep[classID] = true
	}
	touched := []string{teacherID}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		for _, classID := range teacher.ClassIDs {
			if keep[classID] {
				continue
			}
			class, err := tx.Get(ctx, classID)
			if errors.Is(err, ErrClassNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if class.Teacher() == teacherID {
				if err := tx.Update(ctx, classID, map[string]any{"teacher_id": nil}); err != nil {
					return err
				}
			}
		}
		for _, classID := range wanted {
			previous := classes[classID].Teacher()
			if previous == teacherID {
				continue
			}
			if previous != "" {
				if err := tx.RemoveTeacherClass(ctx, previous, classID); err != nil {
					return err
				}
				touched = append(touched, previous)
			}
			if err := tx.Update(ctx, classID, map[string]any{"teacher_id": teacherID}); err != nil {
				return err
			}
		}
		return tx.SetTeacherClasses(ctx, teacherID, wanted)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, touched...)

	teacher.ClassIDs = wanted
	return teacher, nil
}

func (s *Service) ensureTeacher(ctx context.Context, tenantID, teacherID string) error {
	teacher, err := s.repo.GetTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, ErrTeacherNotFound) {
			return access.Invalid("teacher_id", "is not a teacher of this school")
		}
		return err
	}
	if teacher.Role != access.RoleTeacher || teacher.TenantID != tenantID {
		return access.Invalid("teacher_id", "is not a teacher of this school")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, staffIDs ...string) {
	for _, id := range staffIDs {
		if id != "" {
			s.invalidator.Invalidate(ctx, id)
		}
	}
}

func canRead(actor access.Actor, class *SchoolClass) bool {
	switch actor.Role {
	case access.RoleOwner:
		return true
	case access.RoleAdmin:
		return actor.SameTenant(class.TenantID)
	case access.RoleTeacher:
		return actor.SameTenant(class.TenantID) && class.Teacher() == actor.ID
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
