package students

import (
	"net/http"

	studentdomain "school-sos-go/internal/domain/student"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
	"school-sos-go/pkg/logger"
)

type Handlers struct {
	Students       *studentdomain.Service
	maxUploadBytes int64
	log            logger.Logger
}

func New(students *studentdomain.Service, maxUploadBytes int64, log logger.Logger) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handlers{
		Students:       students,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	commonhandler.WriteServiceError(w, r, h.log, op, err)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	commonhandler.WriteJSON(w, status, payload)
}
