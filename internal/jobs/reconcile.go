package jobs

import (
	"context"
	"sync"
	"time"

	"school-sos-go/internal/config"
	"school-sos-go/internal/domain/classes"
	"school-sos-go/pkg/logger"
)

type Reconciler interface {
	RunUnchecked(ctx context.Context, opts classes.RunOptions) (*classes.Report, error)
}

// Observer receives the outcome of every run; metrics implements it.
type Observer interface {
	ObserveReconcile(report *classes.Report, err error)
}

// StartReconcileJob runs the roster reconciler across every school on a
// ticker until ctx is cancelled. The returned WaitGroup completes once the
// loop has exited.
func StartReconcileJob(ctx context.Context, cfg config.ReconcileConfig, reconciler Reconciler, observer Observer, log logger.Logger) *sync.WaitGroup {
	var wg sync.WaitGroup
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Interval <= 0 {
		log.Info("reconcile job disabled")
		return &wg
	}
	if reconciler == nil {
		log.Warn("reconcile job disabled: reconciler not configured")
		return &wg
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	ticker := time.NewTicker(cfg.Interval)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				report, err := reconciler.RunUnchecked(tickCtx, classes.RunOptions{DryRun: cfg.DryRun})
				cancel()
				if observer != nil {
					observer.ObserveReconcile(report, err)
				}
				if err != nil {
					log.InternalError("reconcile job failed", err)
					continue
				}
				if n := len(report.Inconsistencies); n > 0 {
					log.Warn("reconcile job found inconsistencies",
						"count", n, "repaired", report.Repaired, "dry_run", report.DryRun)
				}
			}
		}
	}()
	return &wg
}
