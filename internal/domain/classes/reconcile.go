package classes

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"school-sos-go/internal/domain/access"
	"school-sos-go/pkg/logger"
)

type InconsistencyKind string

const (
	// KindOrphanedTeacher: the class points at a staff record that is gone,
	// is not a teacher, or belongs to another school. teacher_id is cleared.
	KindOrphanedTeacher InconsistencyKind = "orphaned_teacher"
	// KindMissingBackref: the class points at a valid teacher that does not
	// list it. The id is added to the teacher.
	KindMissingBackref InconsistencyKind = "missing_backref"
	// KindStaleClassID: the teacher lists a class that is gone, foreign or
	// owned by someone else. The id is dropped.
	KindStaleClassID InconsistencyKind = "stale_class_id"
)

type Inconsistency struct {
	Kind      InconsistencyKind `json:"kind"`
	ClassID   string            `json:"class_id"`
	TeacherID string            `json:"teacher_id"`
}

type Report struct {
	TenantID        string          `json:"tenant_id,omitempty"`
	DryRun          bool            `json:"dry_run"`
	ClassesChecked  int             `json:"classes_checked"`
	TeachersChecked int             `json:"teachers_checked"`
	Inconsistencies []Inconsistency `json:"inconsistencies"`
	Repaired        bool            `json:"repaired"`
}

type RunOptions struct {
	// TenantID limits the run to one school; empty checks every school.
	TenantID string
	DryRun   bool
}

// Reconciler restores the class<->teacher invariant after partial writes.
// The class side wins: teacher_id is the source of truth whenever it names
// a valid teacher.
type Reconciler struct {
	repo        Repository
	invalidator Invalidator
	log         logger.Logger
}

func NewReconciler(repo Repository, invalidator Invalidator, log logger.Logger) *Reconciler {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{repo: repo, invalidator: invalidator, log: log}
}

// Run is exposed to owners over HTTP; the actor check lives here so the
// periodic job and CLI can call RunUnchecked.
func (r *Reconciler) Run(ctx context.Context, actor access.Actor, opts RunOptions) (*Report, error) {
	if !access.CanManageSchools(actor.Role) {
		return nil, access.ErrForbidden
	}
	return r.RunUnchecked(ctx, opts)
}

func (r *Reconciler) RunUnchecked(ctx context.Context, opts RunOptions) (*Report, error) {
	classes, err := r.repo.List(ctx, ListFilter{TenantID: opts.TenantID})
	if err != nil {
		return nil, err
	}
	teachers, err := r.repo.ListTeachers(ctx, opts.TenantID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TenantID:        opts.TenantID,
		DryRun:          opts.DryRun,
		ClassesChecked:  len(classes),
		TeachersChecked: len(teachers),
		Inconsistencies: []Inconsistency{},
	}

	teacherByID := make(map[string]Teacher, len(teachers))
	for _, teacher := range teachers {
		teacherByID[teacher.ID] = teacher
	}
	classByID := make(map[string]SchoolClass, len(classes))

	var clearClasses []string
	owned := make(map[string][]string)
	for _, class := range classes {
		teacherID := class.Teacher()
		if teacherID == "" {
			classByID[class.ID] = class
			continue
		}
		teacher, ok := teacherByID[teacherID]
		if !ok {
			// Out-of-scope or non-teacher records fail the same check.
			found, err := r.repo.GetTeacher(ctx, teacherID)
			if err == nil && found.Role == access.RoleTeacher && found.TenantID == class.TenantID {
				teacher, ok = *found, true
				teacherByID[teacher.ID] = teacher
			}
		}
		if !ok || teacher.TenantID != class.TenantID {
			report.Inconsistencies = append(report.Inconsistencies, Inconsistency{
				Kind: KindOrphanedTeacher, ClassID: class.ID, TeacherID: teacherID,
			})
			clearClasses = append(clearClasses, class.ID)
			class.TeacherID = nil
			classByID[class.ID] = class
			continue
		}
		classByID[class.ID] = class
		owned[teacherID] = append(owned[teacherID], class.ID)
	}

	rewrite := make(map[string][]string)
	for _, teacher := range teacherByID {
		var next []string
		seen := make(map[string]bool)
		changed := false
		for _, classID := range teacher.ClassIDs {
			class, ok := classByID[classID]
			if !ok || seen[classID] || class.Teacher() != teacher.ID {
				if !seen[classID] {
					report.Inconsistencies = append(report.Inconsistencies, Inconsistency{
						Kind: KindStaleClassID, ClassID: classID, TeacherID: teacher.ID,
					})
				}
				changed = true
				continue
			}
			seen[classID] = true
			next = append(next, classID)
		}
		for _, classID := range owned[teacher.ID] {
			if seen[classID] {
				continue
			}
			report.Inconsistencies = append(report.Inconsistencies, Inconsistency{
				Kind: KindMissingBackref, ClassID: classID, TeacherID: teacher.ID,
			})
			seen[classID] = true
			next = append(next, classID)
			changed = true
		}
		if changed {
			if next == nil {
				next = []string{}
			}
			rewrite[teacher.ID] = next
		}
	}

	slices.SortFunc(report.Inconsistencies, func(a, b Inconsistency) int {
		return cmp.Or(
			strings.Compare(a.ClassID, b.ClassID),
			strings.Compare(string(a.Kind), string(b.Kind)),
			strings.Compare(a.TeacherID, b.TeacherID),
		)
	})

	if len(report.Inconsistencies) == 0 || opts.DryRun {
		if len(report.Inconsistencies) > 0 {
			r.log.Warn("classes.reconcile: inconsistencies found (dry run)",
				"tenant_id", opts.TenantID, "count", len(report.Inconsistencies))
		}
		return report, nil
	}

	err = r.repo.Transaction(ctx, func(tx Repository) error {
		for _, classID := range clearClasses {
			if err := tx.Update(ctx, classID, map[string]any{"teacher_id": nil}); err != nil {
				return err
			}
		}
		for teacherID, classIDs := range rewrite {
			if err := tx.SetTeacherClasses(ctx, teacherID, classIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, err
	}
	for teacherID := range rewrite {
		r.invalidator.Invalidate(ctx, teacherID)
	}

	report.Repaired = true
	r.log.Warn("classes.reconcile: repaired inconsistencies",
		"tenant_id", opts.TenantID, "count", len(report.Inconsistencies))
	return report, nil
}
