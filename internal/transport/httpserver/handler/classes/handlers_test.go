package classes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"school-sos-go/internal/domain/access"
	classesdomain "school-sos-go/internal/domain/classes"
	"school-sos-go/internal/transport/httpserver/middleware"
)

const (
	schoolID  = "0b6f54f8-1a77-4c4e-8f0e-5d2b9c7e0001"
	classID   = "0b6f54f8-1a77-4c4e-8f0e-5d2b9c7e0002"
	teacherID = "0b6f54f8-1a77-4c4e-8f0e-5d2b9c7e0003"
	adminID   = "0b6f54f8-1a77-4c4e-8f0e-5d2b9c7e0004"
)

type memoryRoster struct {
	classes  map[string]*classesdomain.SchoolClass
	teachers map[string]*classesdomain.Teacher
}

func newMemoryRoster() *memoryRoster {
	return &memoryRoster{
		classes:  make(map[string]*classesdomain.SchoolClass),
		teachers: make(map[string]*classesdomain.Teacher),
	}
}

func (r *memoryRoster) Transaction(ctx context.Context, fn func(classesdomain.Repository) error) error {
	return fn(r)
}

func (r *memoryRoster) Create(ctx context.Context, class *classesdomain.SchoolClass) error {
	copied := *class
	r.classes[class.ID] = &copied
	return nil
}

func (r *memoryRoster) Get(ctx context.Context, id string) (*classesdomain.SchoolClass, error) {
	class, ok := r.classes[id]
	if !ok {
		return nil, classesdomain.ErrClassNotFound
	}
	copied := *class
	return &copied, nil
}

func (r *memoryRoster) List(ctx context.Context, filter classesdomain.ListFilter) ([]classesdomain.SchoolClass, error) {
	var result []classesdomain.SchoolClass
	for _, class := range r.classes {
		if filter.TenantID == "" || class.TenantID == filter.TenantID {
			result = append(result, *class)
		}
	}
	return result, nil
}

func (r *memoryRoster) Update(ctx context.Context, id string, updates map[string]any) error {
	class, ok := r.classes[id]
	if !ok {
		return classesdomain.ErrClassNotFound
	}
	if value, ok := updates["name"].(string); ok {
		class.Name = value
	}
	if value, ok := updates["teacher_id"]; ok {
		if teacher, ok := value.(string); ok {
			class.TeacherID = &teacher
		} else {
			class.TeacherID = nil
		}
	}
	return nil
}

func (r *memoryRoster) Delete(ctx context.Context, id string) error {
	delete(r.classes, id)
	return nil
}

func (r *memoryRoster) CountStudents(ctx context.Context, classID string) (int64, error) {
	return 0, nil
}

func (r *memoryRoster) GetTeacher(ctx context.Context, id string) (*classesdomain.Teacher, error) {
	teacher, ok := r.teachers[id]
	if !ok {
		return nil, classesdomain.ErrTeacherNotFound
	}
	copied := *teacher
	copied.ClassIDs = slices.Clone(teacher.ClassIDs)
	return &copied, nil
}

func (r *memoryRoster) ListTeachers(ctx context.Context, tenantID string) ([]classesdomain.Teacher, error) {
	var result []classesdomain.Teacher
	for _, teacher := range r.teachers {
		if tenantID == "" || teacher.TenantID == tenantID {
			result = append(result, *teacher)
		}
	}
	return result, nil
}

func (r *memoryRoster) AddTeacherClass(ctx context.Context, teacherID, classID string) error {
	teacher, ok := r.teachers[teacherID]
	if !ok {
		return classesdomain.ErrTeacherNotFound
	}
	if !teacher.HasClass(classID) {
		teacher.ClassIDs = append(teacher.ClassIDs, classID)
	}
	return nil
}

func (r *memoryRoster) RemoveTeacherClass(ctx context.Context, teacherID, classID string) error {
	teacher, ok := r.teachers[teacherID]
	if !ok {
		return nil
	}
	teacher.ClassIDs = slices.DeleteFunc(teacher.ClassIDs, func(id string) bool { return id == classID })
	return nil
}

func (r *memoryRoster) SetTeacherClasses(ctx context.Context, teacherID string, classIDs []string) error {
	teacher, ok := r.teachers[teacherID]
	if !ok {
		return classesdomain.ErrTeacherNotFound
	}
	teacher.ClassIDs = slices.Clone(classIDs)
	return nil
}

type recordingInvalidator struct {
	ids []string
}

func (i *recordingInvalidator) Invalidate(ctx context.Context, staffID string) {
	i.ids = append(i.ids, staffID)
}

func seedAssignedClass(repo *memoryRoster) {
	teacher := teacherID
	repo.teachers[teacherID] = &classesdomain.Teacher{
		ID:       teacherID,
		TenantID: schoolID,
		Role:     access.RoleTeacher,
		ClassIDs: []string{classID},
	}
	repo.classes[classID] = &classesdomain.SchoolClass{
		ID:        classID,
		TenantID:  schoolID,
		Name:      "3-A",
		TeacherID: &teacher,
	}
}

func newTestRouter(repo *memoryRoster, invalidator *recordingInvalidator, actor access.Actor) http.Handler {
	h := New(classesdomain.NewService(repo, invalidator, nil), nil, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), actor)))
		})
	})
	r.Get("/api/classes/{id}", h.GetClass)
	r.Patch("/api/classes/{id}", h.UpdateClass)
	return r
}

func patchClass(router http.Handler, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/api/classes/"+id, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateClassUnassignsTeacher(t *testing.T) {
	repo := newMemoryRoster()
	seedAssignedClass(repo)
	invalidator := &recordingInvalidator{}
	admin := access.Actor{ID: adminID, Role: access.RoleAdmin, TenantID: schoolID}
	router := newTestRouter(repo, invalidator, admin)

	rec := patchClass(router, classID, `{"teacher_id":""}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "teacher_id")
	require.Nil(t, body["teacher_id"])

	require.Nil(t, repo.classes[classID].TeacherID)
	require.Empty(t, repo.teachers[teacherID].ClassIDs)
	require.Equal(t, []string{teacherID}, invalidator.ids)
}

func TestUpdateClassWithoutTeacherKeyKeepsTeacher(t *testing.T) {
	repo := newMemoryRoster()
	seedAssignedClass(repo)
	invalidator := &recordingInvalidator{}
	admin := access.Actor{ID: adminID, Role: access.RoleAdmin, TenantID: schoolID}
	router := newTestRouter(repo, invalidator, admin)

	rec := patchClass(router, classID, `{"name":"3-B"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Equal(t, "3-B", repo.classes[classID].Name)
	require.NotNil(t, repo.classes[classID].TeacherID)
	require.Equal(t, teacherID, *repo.classes[classID].TeacherID)
	require.Equal(t, []string{classID}, repo.teachers[teacherID].ClassIDs)
	require.Empty(t, invalidator.ids)
}

func TestUpdateClassRejectsMalformedTeacher(t *testing.T) {
	repo := newMemoryRoster()
	seedAssignedClass(repo)
	admin := access.Actor{ID: adminID, Role: access.RoleAdmin, TenantID: schoolID}
	router := newTestRouter(repo, &recordingInvalidator{}, admin)

	for _, value := range []string{"nope", " ", "urn:uuid:" + teacherID} {
		payload, err := json.Marshal(map[string]string{"teacher_id": value})
		require.NoError(t, err)

		rec := patchClass(router, classID, string(payload))
		require.Equal(t, http.StatusBadRequest, rec.Code, value)

		var body struct {
			Error struct {
				Code   string            `json:"code"`
				Fields map[string]string `json:"fields"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "invalid_request", body.Error.Code)
		require.Contains(t, body.Error.Fields, "teacher_id")
	}
	require.Equal(t, teacherID, *repo.classes[classID].TeacherID)
}

func TestClassMalformedIDIsNotFound(t *testing.T) {
	repo := newMemoryRoster()
	seedAssignedClass(repo)
	admin := access.Actor{ID: adminID, Role: access.RoleAdmin, TenantID: schoolID}
	router := newTestRouter(repo, &recordingInvalidator{}, admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/classes/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = patchClass(router, "42", `{"name":"3-B"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "3-A", repo.classes[classID].Name)
}
