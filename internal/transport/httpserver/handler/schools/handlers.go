package schools

import (
	"net/http"

	classesdomain "school-sos-go/internal/domain/classes"
	invitedomain "school-sos-go/internal/domain/invite"
	schooldomain "school-sos-go/internal/domain/school"
	staffdomain "school-sos-go/internal/domain/staff"
	studentdomain "school-sos-go/internal/domain/student"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
	"school-sos-go/pkg/logger"
)

// Handlers serves the owner-facing platform routes: schools, their admins,
// invitations and maintenance runs.
type Handlers struct {
	Schools       *schooldomain.Service
	Staff         *staffdomain.Service
	Invites       *invitedomain.Service
	Reconciler    *classesdomain.Reconciler
	Students      *studentdomain.Service
	publicBaseURL string
	log           logger.Logger
}

func New(schools *schooldomain.Service, staff *staffdomain.Service, invites *invitedomain.Service, reconciler *classesdomain.Reconciler, students *studentdomain.Service, publicBaseURL string, log logger.Logger) *Handlers {
	return &Handlers{
		Schools:       schools,
		Staff:         staff,
		Invites:       invites,
		Reconciler:    reconciler,
		Students:      students,
		publicBaseURL: publicBaseURL,
		log:           log,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	commonhandler.WriteServiceError(w, r, h.log, op, err)
}
