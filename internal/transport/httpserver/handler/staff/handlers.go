package staff

import (
	"net/http"

	"school-sos-go/internal/domain/access"
	classesdomain "school-sos-go/internal/domain/classes"
	staffdomain "school-sos-go/internal/domain/staff"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
	"school-sos-go/pkg/logger"
)

type Handlers struct {
	Staff   *staffdomain.Service
	Classes *classesdomain.Service
	log     logger.Logger
}

func New(staff *staffdomain.Service, classes *classesdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Staff:   staff,
		Classes: classes,
		log:     log,
	}
}

type createTeacherRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type updateStaffRequest struct {
	Name   *string `json:"name" validate:"omitempty,notblank,max=200"`
	Phone  *string `json:"phone" validate:"omitempty,max=50"`
	Active *bool   `json:"active"`
}

type assignClassesRequest struct {
	ClassIDs []string `json:"class_ids" validate:"required,dive,uuid"`
}

type assignClassesResponse struct {
	TeacherID string   `json:"teacher_id"`
	SchoolID  string   `json:"school_id"`
	ClassIDs  []string `json:"class_ids"`
}

type listStaffResponse struct {
	Items []commonhandler.StaffView `json:"items"`
	Total int                       `json:"total"`
}

func (h *Handlers) ListStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	schoolID, ok := commonhandler.QueryID(w, r, "school_id")
	if !ok {
		return
	}
	filter := staffdomain.ListFilter{TenantID: schoolID}
	if value := r.URL.Query().Get("role"); value != "" {
		role, ok := access.ParseRole(value)
		if !ok {
			commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "role must be owner, admin or teacher")
			return
		}
		filter.Role = role
	}

	members, err := h.Staff.List(r.Context(), actor, filter)
	if err != nil {
		h.fail(w, r, "staff.list", err)
		return
	}

	items := make([]commonhandler.StaffView, 0, len(members))
	for _, member := range members {
		items = append(items, commonhandler.NewStaffView(member))
	}
	commonhandler.WriteJSON(w, http.StatusOK, listStaffResponse{Items: items, Total: len(items)})
}

func (h *Handlers) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}
	var req createTeacherRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.Staff.CreateTeacher(r.Context(), actor, staffdomain.NewStaff{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, "staff.create_teacher", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusCreated, commonhandler.NewStaffView(*member))
}

func (h *Handlers) GetStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	member, err := h.Staff.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "staff.get", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewStaffView(*member))
}

func (h *Handlers) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req updateStaffRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	member, err := h.Staff.Update(r.Context(), actor, id, staffdomain.UpdateStaff{
		Name:   req.Name,
		Phone:  req.Phone,
		Active: req.Active,
	})
	if err != nil {
		h.fail(w, r, "staff.update", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewStaffView(*member))
}

func (h *Handlers) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Staff.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "staff.delete", err)
		return
	}
	commonhandler.WriteNoContent(w)
}

// AssignClasses replaces the full set of classes a teacher owns, keeping
// both sides of the reference in step.
func (h *Handlers) AssignClasses(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req assignClassesRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	teacher, err := h.Classes.AssignTeacherClasses(r.Context(), actor, id, req.ClassIDs)
	if err != nil {
		h.fail(w, r, "staff.assign_classes", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, assignClassesResponse{
		TeacherID: teacher.ID,
		SchoolID:  teacher.TenantID,
		ClassIDs:  teacher.ClassIDs,
	})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	commonhandler.WriteServiceError(w, r, h.log, op, err)
}
