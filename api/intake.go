package api

import (
	"errors"
	"net/http"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/intake"
	"github.com/garnizeh/intake/internal/upload"
)

// multipartOverhead is allowed on top of the file limit for form framing.
const multipartOverhead = 64 << 10

// IntakeHandler serves the public submission endpoints.
type IntakeHandler struct {
	svc       *intake.Service
	fileLimit int64
}

func NewIntakeHandler(svc *intake.Service, fileLimit int64) *IntakeHandler {
	if fileLimit <= 0 {
		fileLimit = upload.DefaultLimit
	}
	return &IntakeHandler{svc: svc, fileLimit: fileLimit}
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Upload accepts a multipart form with a single "file" field.
func (h *IntakeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.fileLimit+multipartOverhead)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, apperr.ErrPayloadTooLarge)
			return
		}
		writeError(w, r, apperr.NewValidationError(map[string]string{"file": "a file is required"}))
		return
	}
	defer r.MultipartForm.RemoveAll()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.NewValidationError(map[string]string{"file": "a file is required"}))
		return
	}
	defer f.Close()

	u, err := h.svc.RecordUpload(r.Context(), upload.File{Filename: hdr.Filename, Size: hdr.Size, Content: f})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, uploadResponse{Success: true, ID: u.ID, URL: u.URL, Filename: u.Filename}, http.StatusCreated)
}

func (h *IntakeHandler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.svc.SubmitQuote(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, q.ID)
}

func (h *IntakeHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.svc.SubmitApplication(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, a.ID)
}

func (h *IntakeHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := h.svc.SubmitContact(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, m.ID)
}
