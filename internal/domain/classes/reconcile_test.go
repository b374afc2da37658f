package classes

import (
	"context"
	"errors"
	"testing"

	"school-sos-go/internal/domain/access"
)

func TestReconcileRepairsPartialReassignment(t *testing.T) {
	repo := newFakeRosterRepo()
	seedRoster(repo)
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	class, err := svc.Create(ctx, adminS1, NewClass{Name: "C", TeacherID: "T1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Attaching to T2 fails after T1 was already detached.
	repo.failAdd = errors.New("write timeout")
	if _, err := svc.Update(ctx, adminS1, class.ID, UpdateClass{TeacherID: strPtr("T2")}); err == nil {
		t.Fatalf("expected update to fail")
	}
	repo.failAdd = nil
	if repo.teachers["T1"].HasClass(class.ID) || repo.classes[class.ID].Teacher() != "T1" {
		t.Fatalf("expected divergent state after partial failure")
	}

	invalidator := &recordingInvalidator{}
	reconciler := NewReconciler(repo, invalidator, nil)

	dry, err := reconciler.RunUnchecked(ctx, RunOptions{TenantID: "S1", DryRun: true})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(dry.Inconsistencies) != 1 || dry.Inconsistencies[0].Kind != KindMissingBackref || dry.Repaired {
		t.Fatalf("unexpected dry run report %+v", dry)
	}
	if repo.teachers["T1"].HasClass(class.ID) {
		t.Fatalf("expected dry run not to write")
	}

	report, err := reconciler.RunUnchecked(ctx, RunOptions{TenantID: "S1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Repaired {
		t.Fatalf("expected repair, got %+v", report)
	}
	if len(invalidator.ids) != 1 || invalidator.ids[0] != "T1" {
		t.Fatalf("expected T1 invalidated, got %v", invalidator.ids)
	}
	assertBidirectional(t, repo)

	again, err := reconciler.RunUnchecked(ctx, RunOptions{TenantID: "S1"})
	if err != nil || len(again.Inconsistencies) != 0 || again.Repaired {
		t.Fatalf("expected clean second run, got %+v %v", again, err)
	}
}

func TestReconcileClearsOrphansAndStaleIDs(t *testing.T) {
	repo := newFakeRosterRepo()
	seedRoster(repo)
	gone, foreign, admin, t1 := "deleted-teacher", "T9", "A1", "T1"
	repo.classes["C1"] = &SchoolClass{ID: "C1", TenantID: "S1", TeacherID: &gone}
	repo.classes["C2"] = &SchoolClass{ID: "C2", TenantID: "S1", TeacherID: &foreign}
	repo.classes["C3"] = &SchoolClass{ID: "C3", TenantID: "S1", TeacherID: &admin}
	repo.classes["C4"] = &SchoolClass{ID: "C4", TenantID: "S1", TeacherID: &t1}
	repo.classes["C5"] = &SchoolClass{ID: "C5", TenantID: "S1"}
	repo.classes["C8"] = &SchoolClass{ID: "C8", TenantID: "S2"}
	repo.teachers["T1"].ClassIDs = []string{"C4", "C4", "C5", "missing"}
	repo.teachers["T2"].ClassIDs = []string{"C4"}
	repo.teachers["T9"].ClassIDs = []string{"C2", "C8"}

	report, err := NewReconciler(repo, nil, nil).RunUnchecked(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	kinds := map[InconsistencyKind]int{}
	for _, item := range report.Inconsistencies {
		kinds[item.Kind]++
	}
	if kinds[KindOrphanedTeacher] != 3 {
		t.Fatalf("expected 3 orphaned teacher refs, got %+v", report.Inconsistencies)
	}
	// T1: C5 and missing; T2: C4; T9: C2 and C8.
	if kinds[KindStaleClassID] != 5 {
		t.Fatalf("expected 5 stale ids, got %+v", report.Inconsistencies)
	}

	for _, id := range []string{"C1", "C2", "C3"} {
		if repo.classes[id].TeacherID != nil {
			t.Fatalf("expected %s cleared", id)
		}
	}
	if got := repo.teachers["T1"].ClassIDs; len(got) != 1 || got[0] != "C4" {
		t.Fatalf("expected T1 to keep only C4, got %v", got)
	}
	if len(repo.teachers["T9"].ClassIDs) != 0 {
		t.Fatalf("expected T9 emptied, got %v", repo.teachers["T9"].ClassIDs)
	}
	assertBidirectional(t, repo)
}

func TestReconcileRunOwnerOnly(t *testing.T) {
	repo := newFakeRosterRepo()
	reconciler := NewReconciler(repo, nil, nil)

	if _, err := reconciler.Run(context.Background(), adminS1, RunOptions{}); !errors.Is(err, access.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	owner := access.Actor{ID: "O", Role: access.RoleOwner}
	report, err := reconciler.Run(context.Background(), owner, RunOptions{})
	if err != nil || len(report.Inconsistencies) != 0 {
		t.Fatalf("expected empty report, got %+v %v", report, err)
	}
}
