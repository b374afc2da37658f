package students

import (
	"net/http"

	studentdomain "school-sos-go/internal/domain/student"
	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
)

type emergencyContactRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=200"`
	Relation string `json:"relation" validate:"max=100"`
	Phone    string `json:"phone" validate:"required,notblank,max=50"`
}

type medicalRequest struct {
	BloodType         string `json:"blood_type" validate:"max=10"`
	Allergies         string `json:"allergies" validate:"max=2000"`
	ChronicConditions string `json:"chronic_conditions" validate:"max=2000"`
	Medications       string `json:"medications" validate:"max=2000"`
	OtherInfo         string `json:"other_info" validate:"max=2000"`
}

type createStudentRequest struct {
	ClassID           string                    `json:"class_id" validate:"required,uuid"`
	FirstName         string                    `json:"first_name" validate:"required,notblank,max=100"`
	LastName          string                    `json:"last_name" validate:"required,notblank,max=100"`
	Medical           medicalRequest            `json:"medical"`
	EmergencyContacts []emergencyContactRequest `json:"emergency_contacts" validate:"max=10,dive"`
	WristbandStatus   string                    `json:"wristband_status" validate:"omitempty,oneof=none needs_production produced shipped active"`
	Notes             string                    `json:"notes" validate:"max=2000"`
}

type updateStudentRequest struct {
	ClassID           *string                    `json:"class_id" validate:"omitempty,uuid"`
	FirstName         *string                    `json:"first_name" validate:"omitempty,notblank,max=100"`
	LastName          *string                    `json:"last_name" validate:"omitempty,notblank,max=100"`
	Medical           *medicalRequest            `json:"medical"`
	EmergencyContacts *[]emergencyContactRequest `json:"emergency_contacts" validate:"omitempty,max=10,dive"`
	Notes             *string                    `json:"notes" validate:"omitempty,max=2000"`
	RefreshClassName  bool                       `json:"refresh_class_name"`
}

type updateRecordsRequest struct {
	WristbandID     *string `json:"wristband_id" validate:"omitempty,max=100"`
	WristbandStatus *string `json:"wristband_status" validate:"omitempty,oneof=none needs_production produced shipped active"`
	SchoolNumber    *string `json:"school_number" validate:"omitempty,max=50"`
}

type listStudentsResponse struct {
	Items []commonhandler.StudentView `json:"items"`
	Total int                         `json:"total"`
}

func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	schoolID, ok := commonhandler.QueryID(w, r, "school_id")
	if !ok {
		return
	}

	students, err := h.Students.ListBySchool(r.Context(), actor, schoolID)
	if err != nil {
		h.fail(w, r, "students.list", err)
		return
	}

	items := make([]commonhandler.StudentView, 0, len(students))
	for _, student := range students {
		items = append(items, commonhandler.NewStudentView(student))
	}
	commonhandler.WriteJSON(w, http.StatusOK, listStudentsResponse{Items: items, Total: len(items)})
}

func (h *Handlers) CreateStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}
	var req createStudentRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	student, err := h.Students.Create(r.Context(), actor, studentdomain.NewStudent{
		ClassID:           req.ClassID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Medical:           toMedical(req.Medical),
		EmergencyContacts: toContacts(req.EmergencyContacts),
		WristbandStatus:   studentdomain.WristbandStatus(req.WristbandStatus),
		Notes:             req.Notes,
	})
	if err != nil {
		h.fail(w, r, "students.create", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusCreated, commonhandler.NewStudentView(*student))
}

func (h *Handlers) GetStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	student, err := h.Students.Get(r.Context(), actor, id)
	if err != nil {
		h.fail(w, r, "students.get", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewStudentView(*student))
}

func (h *Handlers) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req updateStudentRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	input := studentdomain.UpdateStudent{
		ClassID:          req.ClassID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Notes:            req.Notes,
		RefreshClassName: req.RefreshClassName,
	}
	if req.Medical != nil {
		medical := toMedical(*req.Medical)
		input.Medical = &medical
	}
	if req.EmergencyContacts != nil {
		contacts := toContacts(*req.EmergencyContacts)
		input.EmergencyContacts = &contacts
	}

	student, err := h.Students.Update(r.Context(), actor, id, input)
	if err != nil {
		h.fail(w, r, "students.update", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewStudentView(*student))
}

// UpdateRecords changes the administrative fields: wristband and school number.
func (h *Handlers) UpdateRecords(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}
	var req updateRecordsRequest
	if !commonhandler.DecodeAndValidate(w, r, &req) {
		return
	}

	input := studentdomain.RecordsUpdate{
		WristbandID:  req.WristbandID,
		SchoolNumber: req.SchoolNumber,
	}
	if req.WristbandStatus != nil {
		status := studentdomain.WristbandStatus(*req.WristbandStatus)
		input.WristbandStatus = &status
	}

	student, err := h.Students.UpdateRecords(r.Context(), actor, id, input)
	if err != nil {
		h.fail(w, r, "students.update_records", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewStudentView(*student))
}

func (h *Handlers) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Students.Delete(r.Context(), actor, id); err != nil {
		h.fail(w, r, "students.delete", err)
		return
	}
	commonhandler.WriteNoContent(w)
}

func toMedical(req medicalRequest) studentdomain.Medical {
	return studentdomain.Medical{
		BloodType:         req.BloodType,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		Medications:       req.Medications,
		OtherInfo:         req.OtherInfo,
	}
}

func toContacts(req []emergencyContactRequest) []studentdomain.EmergencyContact {
	contacts := make([]studentdomain.EmergencyContact, 0, len(req))
	for _, contact := range req {
		contacts = append(contacts, studentdomain.EmergencyContact{
			Name:     contact.Name,
			Relation: contact.Relation,
			Phone:    contact.Phone,
		})
	}
	return contacts
}
