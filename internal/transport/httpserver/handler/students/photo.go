package students

import (
	"errors"
	"io"
	"net/http"

	commonhandler "school-sos-go/internal/transport/httpserver/handler/common"
)

const photoField = "photo"

// UploadPhoto accepts a multipart form with a single "photo" file.
func (h *Handlers) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := commonhandler.CurrentActor(w, r)
	if !ok {
		return
	}

	id, ok := commonhandler.PathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			commonhandler.WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "photo is too large")
			return
		}
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "expected multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(photoField)
	if err != nil {
		commonhandler.WriteError(w, http.StatusBadRequest, "invalid_request", "photo file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		sniff := make([]byte, 512)
		n, _ := file.Read(sniff)
		contentType = http.DetectContentType(sniff[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			h.fail(w, r, "students.upload_photo", err)
			return
		}
	}

	student, err := h.Students.UploadPhoto(r.Context(), actor, id, header.Filename, contentType, file)
	if err != nil {
		h.fail(w, r, "students.upload_photo", err)
		return
	}
	commonhandler.WriteJSON(w, http.StatusOK, commonhandler.NewStudentView(*student))
}
