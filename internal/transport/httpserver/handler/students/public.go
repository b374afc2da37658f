package students

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicProfile serves the emergency view behind a wristband slug. No
// session is required.
func (h *Handlers) PublicProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Students.GetPublicProfile(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, "students.public_profile", err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, profile)
}
