package classes

import (
	"net/http"

	classesdomain "school-sos-go/internal/domain/classes"
	studentdomain "school-sos-go/internal/domain/student"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
	"school-sos-go/pkg/logger"
)

type Handlers struct {
	Classes  *classesdomain.Service
	Students *studentdomain.Service
	log      logger.Logger
}

func New(classes *classesdomain.Service, students *studentdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Classes:  classes,
		Students: students,
		log:      log,
	}
}

type createClassRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	GradeLevel  string `json:"grade_level" validate:"max=50"`
	Description string `json:"description" validate:"max=1000"`
	TeacherID   string `json:"teacher_id" validate:"omitempty,uuid"`
}

// teacher_id "" unassigns; a missing key leaves the teacher as is.
type updateClassRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	GradeLevel  *string `json:"grade_level" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	TeacherID   *string `json:"teacher_id" validate:"omitempty,uuid_or_empty"`
}

type listClassesResponse struct {
	Items []commonhandler.ClassView `json:"items"`
	Total int                       `json:"total"`
}

type listStudentsResponse struct {
	Items []commonhandler.StudentView `json:"items"`
	Total int                         `json:"total"`
}

func (h *Handlers) ListClasses(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	schoolID, ok := commonhandler.QueryID(w, r, "school_id")
	if !ok {
		return
	}
	teacherID, ok := commonhandler.QueryID(w, r, "teacher_id")
	if !ok {
		return
	}

	classes, err := h.Classes.List(r.Context(), actor, classesdomain.ListFilter{
		TenantID:  schoolID,
		TeacherID: teacherID,
	})
	if err != nil {
		h.fail(w, r, "classes.list", err)
		return
	}

	items := make([]commonhandler.ClassView, 0, len(classes))
	for _, class := range classes {
		items = append(items, commonhandler.NewClassView(class))
	}
	commonhandler.WriteJSON(w, http.StatusOK, listClassesResponse{Items: items, Total: len(items)})
}

func (h *Handlers) GetClass(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	class, err := h.Classes.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "classes.get", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewClassView(*class))
}

func (h *Handlers) CreateClass(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}
	var req createClassRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	class, err := h.Classes.Create(r.Context(), actor, classesdomain.NewClass{
		Name:        req.Name,
		GradeLevel:  req.GradeLevel,
		Description: req.Description,
		TeacherID:   req.TeacherID,
	})
	if err != nil {
		h.fail(w, r, "classes.create", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusCreated, commonhandler.NewClassView(*class))
}

func (h *Handlers) UpdateClass(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req updateClassRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	class, err := h.Classes.Update(r.Context(), actor, id, classesdomain.UpdateClass{
		Name:        req.Name,
		GradeLevel:  req.GradeLevel,
		Description: req.Description,
		TeacherID:   req.TeacherID,
	})
	if err != nil {
		h.fail(w, r, "classes.update", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewClassView(*class))
}

func (h *Handlers) DeleteClass(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Classes.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "classes.delete", err)
		return
	}
	commonhandler.WriteNoContent(w)
}

func (h *Handlers) ListClassStudents(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	students, err := h.Students.ListByClass(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "classes.list_students", err)
		return
	}

	items := make([]commonhandler.StudentView, 0, len(students))
	for _, student := range students {
		items = append(items, commonhandler.NewStudentView(student))
	}
	commonhandler.WriteJSON(w, http.StatusOK, listStudentsResponse{Items: items, Total: len(items)})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	commonhandler.WriteServiceError(w, r, h.log, op, err)
}
