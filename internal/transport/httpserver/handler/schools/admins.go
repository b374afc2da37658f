package schools

import (
	"net/http"

	staffdomain "school-sos-go/internal/domain/staff"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
)

type createStaffRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// CreateAdmin provisions an identity account and an admin record for a
// school in one call.
func (h *Handlers) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req createStaffRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.Staff.CreateAdmin(r.Context(), actor, id, staffdomain.NewStaff{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, "schools.create_admin", err)
		return
	}
	writeJSON(w, http.StatusCreated, commonhandler.NewStaffView(*member))
}
