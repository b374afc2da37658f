package common

import (
	"net/http"
	"time"

	schooldomain "school-sos-go/internal/domain/school"
	staffdomain "school-sos-go/internal/domain/staff"
	"school-sos-go/internal/identity"
	"school-sos-go/pkg/logger"
)

type Handlers struct {
	Staff        *staffdomain.Service
	Schools      *schooldomain.Service
	Sessions     *identity.Sessions
	cookieSecure bool
	log          logger.Logger
}

func New(staff *staffdomain.Service, schools *schooldomain.Service, sessions *identity.Sessions, cookieSecure bool, log logger.Logger) *Handlers {
	return &Handlers{
		Staff:        staff,
		Schools:      schools,
		Sessions:     sessions,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
