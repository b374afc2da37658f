package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"school-sos-go/internal/domain/access"
	classesdomain "school-sos-go/internal/domain/classes"
	schooldomain "school-sos-go/internal/domain/school"
	staffdomain "school-sos-go/internal/domain/staff"
	studentdomain "school-sos-go/internal/domain/student"
)

func TestWriteServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{access.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{staffdomain.ErrNotRegistered, http.StatusForbidden, "not_registered"},
		{access.ErrForbidden, http.StatusForbidden, "access_denied"},
		{staffdomain.ErrInactive, http.StatusForbidden, "access_denied"},
		{schooldomain.ErrSchoolInactive, http.StatusForbidden, "school_inactive"},
		{studentdomain.ErrStudentNotFound, http.StatusNotFound, "not_found"},
		{fmt.Errorf("load: %w", classesdomain.ErrClassNotFound), http.StatusNotFound, "not_found"},
		{classesdomain.ErrClassHasStudents, http.StatusConflict, "conflict"},
		{access.Invalid("name", "is required"), http.StatusBadRequest, "invalid_request"},
		{&staffdomain.ProvisioningError{IdentityID: "id-1", Err: errors.New("db down")}, http.StatusBadGateway, "upstream_error"},
		{access.Upstream("identity.create", errors.New("timeout")), http.StatusBadGateway, "upstream_error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.code+"/"+tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			WriteServiceError(rec, req, nil, "test", tc.err)

			require.Equal(t, tc.status, rec.Code)
			var body errorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestFieldErrorsAreReported(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, httptest.NewRequest(http.MethodPost, "/", nil), nil, "test", access.Invalid("teacher_id", "must be a teacher of this school"))

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "must be a teacher of this school", body.Error.Fields["teacher_id"])
}
