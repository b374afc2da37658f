package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"school-sos-go/internal/config"
	"school-sos-go/internal/domain/classes"
)

type fakeReconciler struct {
	mu   sync.Mutex
	runs []classes.RunOptions
	err  error
	ran  chan struct{}
}

func (f *fakeReconciler) RunUnchecked(ctx context.Context, opts classes.RunOptions) (*classes.Report, error) {
	f.mu.Lock()
	f.runs = append(f.runs, opts)
	f.mu.Unlock()
	select {
	case f.ran <- struct{}{}:
	default:
	}
	if f.err != nil {
		return nil, f.err
	}
	return &classes.Report{DryRun: opts.DryRun, Inconsistencies: []classes.Inconsistency{{Kind: classes.KindStaleClassID}}}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	errors int
	ok     int
}

func (o *recordingObserver) ObserveReconcile(report *classes.Report, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.errors++
		return
	}
	o.ok++
}

func TestReconcileJobRunsUntilCancelled(t *testing.T) {
	reconciler := &fakeReconciler{ran: make(chan struct{}, 1)}
	observer := &recordingObserver{}
	ctx, cancel := context.WithCancel(context.Background())

	wg := StartReconcileJob(ctx, config.ReconcileConfig{Interval: 5 * time.Millisecond, DryRun: true}, reconciler, observer, nil)

	select {
	case <-reconciler.ran:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the job to run")
	}
	cancel()
	wg.Wait()

	reconciler.mu.Lock()
	defer reconciler.mu.Unlock()
	if len(reconciler.runs) == 0 || !reconciler.runs[0].DryRun || reconciler.runs[0].TenantID != "" {
		t.Fatalf("expected dry runs across all schools, got %+v", reconciler.runs)
	}
	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.ok == 0 {
		t.Fatalf("expected observer notified")
	}
}

func TestReconcileJobReportsErrors(t *testing.T) {
	reconciler := &fakeReconciler{ran: make(chan struct{}, 1), err: errors.New("db down")}
	observer := &recordingObserver{}
	ctx, cancel := context.WithCancel(context.Background())

	wg := StartReconcileJob(ctx, config.ReconcileConfig{Interval: 5 * time.Millisecond}, reconciler, observer, nil)
	<-reconciler.ran
	cancel()
	wg.Wait()

	observer.mu.Lock()
	defer observer.mu.Unlock()
	if observer.errors == 0 {
		t.Fatalf("expected error observed")
	}
}

func TestReconcileJobDisabled(t *testing.T) {
	reconciler := &fakeReconciler{ran: make(chan struct{}, 1)}
	wg := StartReconcileJob(context.Background(), config.ReconcileConfig{}, reconciler, nil, nil)
	wg.Wait()
	if len(reconciler.runs) != 0 {
		t.Fatalf("expected no runs when interval is zero")
	}
}
