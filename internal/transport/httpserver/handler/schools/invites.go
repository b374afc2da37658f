package schools

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	invitedomain "school-sos-go/internal/domain/invite"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
)

type createInviteRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
}

type inviteResponse struct {
	invitedomain.Invite
	Token     string `json:"token,omitempty"`
	InviteURL string `json:"invite_url,omitempty"`
}

type listInvitesResponse struct {
	Items []invitedomain.Invite `json:"items"`
	Total int                   `json:"total"`
}

type verifyInviteResponse struct {
	SchoolID   string    `json:"school_id"`
	SchoolName string    `json:"school_name"`
	Email      string    `json:"email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type redeemInviteRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (h *Handlers) CreateInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req createInviteRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.Invites.Create(r.Context(), actor, id, req.Email)
	if err != nil {
		h.fail(w, r, "invites.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, inviteResponse{
		Invite:    created.Invite,
		Token:     created.Token,
		InviteURL: h.publicBaseURL + "/invite/" + url.PathEscape(created.Token),
	})
}

func (h *Handlers) ListInvites(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	invites, err := h.Invites.List(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "invites.list", err)
		return
	}
	if invites == nil {
		invites = []invitedomain.Invite{}
	}
	writeJSON(w, http.StatusOK, listInvitesResponse{Items: invites, Total: len(invites)})
}

// VerifyInvite is public: the registration page checks the token before
// showing the form.
func (h *Handlers) VerifyInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := h.Invites.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, r, "invites.verify", err)
		return
	}
	name, err := h.Schools.Name(r.Context(), invite.TenantID)
	if err != nil {
		h.fail(w, r, "invites.verify: school name", err)
		return
	}
	writeJSON(w, http.StatusOK, verifyInviteResponse{
		SchoolID:   invite.TenantID,
		SchoolName: name,
		Email:      invite.Email,
		CreatedAt:  invite.CreatedAt,
	})
}

func (h *Handlers) RedeemInvite(w http.ResponseWriter, r *http.Request) {
	var req redeemInviteRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.Invites.Redeem(r.Context(), chi.URLParam(r, "token"), invitedomain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, "invites.redeem", err)
		return
	}
	writeJSON(w, http.StatusCreated, commonhandler.NewStaffView(*member))
}
