package schools

import (
	"net/http"
	"strconv"

	schooldomain "school-sos-go/internal/domain/school"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
)

type createSchoolRequest struct {
	Name         string `json:"name" validate:"required,notblank,max=200"`
	Slug         string `json:"slug" validate:"omitempty,max=100"`
	Address      string `json:"address" validate:"max=500"`
	Phone        string `json:"phone" validate:"max=50"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

type updateSchoolRequest struct {
	Name          *string `json:"name" validate:"omitempty,notblank,max=200"`
	Slug          *string `json:"slug" validate:"omitempty,max=100"`
	Address       *string `json:"address" validate:"omitempty,max=500"`
	Phone         *string `json:"phone" validate:"omitempty,max=50"`
	ContactEmail  *string `json:"contact_email"`
	LogoURL       *string `json:"logo_url" validate:"omitempty,url"`
	CoverImageURL *string `json:"cover_image_url" validate:"omitempty,url"`
	Active        *bool   `json:"active"`
}

type listSchoolsResponse struct {
	Items []commonhandler.SchoolView `json:"items"`
	Total int                        `json:"total"`
}

type statsResponse struct {
	SchoolID     string `json:"school_id"`
	StudentCount int64  `json:"student_count"`
	AdminCount   int64  `json:"admin_count"`
	TeacherCount int64  `json:"teacher_count"`
	ClassCount   int64  `json:"class_count"`
}

func (h *Handlers) ListSchools(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	schools, err := h.Schools.List(r.Context(), actor, schooldomain.ListFilter{ActiveOnly: activeOnly})
	if err != nil {
		h.fail(w, r, "schools.list", err)
		return
	}

	items := make([]commonhandler.SchoolView, 0, len(schools))
	for _, school := range schools {
		items = append(items, commonhandler.NewSchoolView(school))
	}
	writeJSON(w, http.StatusOK, listSchoolsResponse{Items: items, Total: len(items)})
}

func (h *Handlers) CreateSchool(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}
	var req createSchoolRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	school, err := h.Schools.Create(r.Context(), actor, schooldomain.NewSchool{
		Name:         req.Name,
		Slug:         req.Slug,
		Address:      req.Address,
		Phone:        req.Phone,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		h.fail(w, r, "schools.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, commonhandler.NewSchoolView(*school))
}

func (h *Handlers) GetSchool(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	school, err := h.Schools.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "schools.get", err)
		return
	}
	writeJSON(w, http.StatusOK, commonhandler.NewSchoolView(*school))
}

func (h *Handlers) UpdateSchool(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req updateSchoolRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	school, err := h.Schools.Update(r.Context(), actor, id, schooldomain.UpdateSchool{
		Name:          req.Name,
		Slug:          req.Slug,
		Address:       req.Address,
		Phone:         req.Phone,
		ContactEmail:  req.ContactEmail,
		LogoURL:       req.LogoURL,
		CoverImageURL: req.CoverImageURL,
		Active:        req.Active,
	})
	if err != nil {
		h.fail(w, r, "schools.update", err)
		return
	}
	writeJSON(w, http.StatusOK, commonhandler.NewSchoolView(*school))
}

func (h *Handlers) SchoolStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.Schools.Stats(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "schools.stats", err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		SchoolID:     stats.SchoolID,
		StudentCount: stats.StudentCount,
		AdminCount:   stats.AdminCount,
		TeacherCount: stats.TeacherCount,
		ClassCount:   stats.ClassCount,
	})
}
