package common

import (
	"errors"
	"net/http"

	"school-sos-go/internal/domain/access"
	schooldomain "school-sos-go/internal/domain/school"
	staffdomain "school-sos-go/internal/domain/staff"
	"school-sos-go/pkg/logger"
)

// WriteServiceError maps the access error taxonomy onto HTTP. Not-found is
// also what callers see for records of other schools.
func WriteServiceError(w http.ResponseWriter, r *http.Request, fallback logger.Logger, op string, err error) {
	log := logger.FromContext(r.Context(), fallback)

	var fieldErr *access.FieldError
	switch {
	case errors.Is(err, staffdomain.ErrNotRegistered):
		log.BusinessError(op, err)
		writeError(w, http.StatusForbidden, "not_registered", "account is not registered as staff")
	case errors.Is(err, schooldomain.ErrSchoolInactive):
		log.BusinessError(op, err)
		writeError(w, http.StatusForbidden, "school_inactive", "school is inactive")
	case errors.Is(err, access.ErrUnauthenticated):
		log.BusinessError(op, err)
		writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid credentials")
	case errors.Is(err, access.ErrForbidden):
		log.BusinessError(op, err)
		writeError(w, http.StatusForbidden, "access_denied", "access denied")
	case errors.Is(err, access.ErrNotFound):
		log.BusinessError(op, err)
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, access.ErrConflict):
		log.BusinessError(op, err)
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.As(err, &fieldErr):
		log.BusinessError(op, err)
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "invalid_request",
			Message: fieldErr.Error(),
			Fields:  map[string]string{fieldErr.Field: fieldErr.Reason},
		}})
	case errors.Is(err, access.ErrInvalid):
		log.BusinessError(op, err)
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, access.ErrUpstream):
		log.InternalError(op, err)
		writeError(w, http.StatusBadGateway, "upstream_error", "upstream service failed")
	case errors.Is(err, access.ErrInconsistent):
		log.InternalError(op, err)
		writeError(w, http.StatusConflict, "inconsistent", "references are inconsistent, retry later")
	default:
		log.InternalError(op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
