package common

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathID reads a uuid path parameter in canonical form. A value that is
// not a uuid cannot name any row, so it is answered with 404 like an
// unknown id.
func PathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := parseID(chi.URLParam(r, name))
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "not found")
		return "", false
	}
	return id, true
}

// QueryID reads an optional uuid filter. Empty means no filter.
func QueryID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return "", true
	}
	id, ok := parseID(value)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "not found")
		return "", false
	}
	return id, true
}

func parseID(value string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
