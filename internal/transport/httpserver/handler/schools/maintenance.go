package schools

import (
	"net/http"

	classesdomain "school-sos-go/internal/domain/classes"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
)

type reconcileRequest struct {
	SchoolID string `json:"school_id" validate:"omitempty,uuid"`
	DryRun   bool   `json:"dry_run"`
}

// Reconcile runs the roster repair on demand. An empty body checks every
// school and repairs what it finds.
func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	var req reconcileRequest
	if r.ContentLength != 0 {
		if !commonhandler.DecodeAndValidate(w, r, &req) {
			return
		}
	}

	report, err := h.Reconciler.Run(r.Context(), actor, classesdomain.RunOptions{
		TenantID: req.SchoolID,
		DryRun:   req.DryRun,
	})
	if err != nil {
		h.fail(w, r, "roster.reconcile", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) BackfillSlugs(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	report, err := h.Students.BackfillSlugs(r.Context(), actor)
	if err != nil {
		h.fail(w, r, "students.backfill_slugs", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
