package common

import (
	"net/http"
	"time"

	"school-sos-go/internal/domain/access"
	"school-sos-go/internal/transport/httpserver/middleware"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Staff     StaffView `json:"staff"`
}

type authMeResponse struct {
	Staff      StaffView `json:"staff"`
	SchoolName string    `json:"school_name,omitempty"`
}

// Login authenticates against the identity provider and hands out a session
// token both in the body and as the __session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeAndValidate(w, r, &req) {
		return
	}

	member, id, err := h.Staff.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteServiceError(w, r, h.log, "auth.login", err)
		return
	}

	token, expiresAt, err := h.Sessions.Issue(id, string(member.Role), member.Tenant())
	if err != nil {
		WriteServiceError(w, r, h.log, "auth.login: issue session", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, Staff: NewStaffView(*member)})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := CurrentActor(w, r)
	if !ok {
		return
	}

	member, err := h.Staff.GetProfile(r.Context(), actor.ID)
	if err != nil {
		WriteServiceError(w, r, h.log, "auth.me", err)
		return
	}

	resp := authMeResponse{Staff: NewStaffView(*member)}
	if tenantID := member.Tenant(); tenantID != "" {
		name, err := h.Schools.Name(r.Context(), tenantID)
		if err != nil {
			WriteServiceError(w, r, h.log, "auth.me: school name", err)
			return
		}
		resp.SchoolName = name
	}
	writeJSON(w, http.StatusOK, resp)
}

// CurrentActor writes 401 when the request carries no actor.
func CurrentActor(w http.ResponseWriter, r *http.Request) (access.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or missing session")
	}
	return actor, ok
}
