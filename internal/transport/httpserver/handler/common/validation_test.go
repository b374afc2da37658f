package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required,notblank"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestDecodeAndValidate(t *testing.T) {
	cases := []struct {
		body   string
		ok     bool
		fields []string
	}{
		{`{"name":"Ada","email":"ada@school.example"}`, true, nil},
		{`{"name":"   "}`, false, []string{"name"}},
		{`{"name":"Ada","email":"nope"}`, false, []string{"email"}},
		{`{"name":"Ada","extra":1}`, false, nil},
		{`not json`, false, nil},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
		var dst sampleRequest

		ok := DecodeAndValidate(rec, req, &dst)
		require.Equal(t, tc.ok, ok, tc.body)
		if tc.ok {
			continue
		}
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		for _, field := range tc.fields {
			require.Contains(t, body.Error.Fields, field)
		}
	}
}
