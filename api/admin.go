package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/content"
	"github.com/garnizeh/intake/internal/lifecycle"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
	"github.com/gorilla/mux"
)

// AdminHandler serves the staff endpoints. Reads go straight to the store;
// every status change goes through the lifecycle manager.
type AdminHandler struct {
	store     Store
	lifecycle *lifecycle.Manager
	content   *content.Service
}

func NewAdminHandler(store Store, lm *lifecycle.Manager, cs *content.Service) *AdminHandler {
	return &AdminHandler{store: store, lifecycle: lm, content: cs}
}

type statusRequest struct {
	Status string `json:"status"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *AdminHandler) audit(r *http.Request, msg string, attrs ...any) {
	user, _ := UserID(r.Context())
	logger.Info(msg, append(attrs, slog.String("user_id", user))...)
}

func filter(r *http.Request) repository.ListFilter {
	limit, offset := pagination(r)
	q := r.URL.Query()
	return repository.ListFilter{Status: q.Get("status"), JobID: q.Get("jobId"), Limit: limit, Offset: offset}
}

// found turns a getter's (nil, nil) into ErrNotFound.
func found(what, id string, ok bool, err error) error {
	if err != nil {
		return apperr.Gateway("load "+what, err)
	}
	if !ok {
		return fmt.Errorf("%s %s: %w", what, id, apperr.ErrNotFound)
	}
	return nil
}

func statusBody(w http.ResponseWriter, r *http.Request) (string, error) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		return "", err
	}
	if req.Status == "" {
		return "", apperr.NewValidationError(map[string]string{"status": "is required"})
	}
	return req.Status, nil
}

// Quote requests

func (h *AdminHandler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	f := filter(r)
	list, err := h.store.ListQuotes(r.Context(), f)
	if err != nil {
		writeError(w, r, apperr.Gateway("list quote requests", err))
		return
	}
	if list == nil {
		list = []models.QuoteRequest{}
	}
	writeData(w, page{Items: list, Limit: f.Limit, Offset: f.Offset})
}

func (h *AdminHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q, err := h.store.GetQuote(r.Context(), id)
	if err := found("quote request", id, q != nil, err); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, q)
}

func (h *AdminHandler) TransitionQuote(w http.ResponseWriter, r *http.Request) {
	status, err := statusBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.lifecycle.TransitionQuote(r.Context(), mux.Vars(r)["id"], models.QuoteStatus(status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, "quote request status set", slog.String("id", q.ID), slog.String("status", string(q.Status)))
	writeData(w, q)
}

// Job listings

func (h *AdminHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var in content.JobListingInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	j, err := h.content.CreateJobListing(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, "job listing created", slog.String("id", j.ID))
	writeCreated(w, j.ID)
}

func (h *AdminHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	f := filter(r)
	list, err := h.store.ListJobListings(r.Context(), f)
	if err != nil {
		writeError(w, r, apperr.Gateway("list job listings", err))
		return
	}
	if list == nil {
		list = []models.JobListing{}
	}
	writeData(w, page{Items: list, Limit: f.Limit, Offset: f.Offset})
}

func (h *AdminHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	j, err := h.store.GetJobListing(r.Context(), id)
	if err := found("job listing", id, j != nil, err); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, j)
}

func (h *AdminHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	var in content.JobListingInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	j, err := h.content.UpdateJobListing(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, j)
}

func (h *AdminHandler) TransitionJob(w http.ResponseWriter, r *http.Request) {
	status, err := statusBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	j, err := h.lifecycle.TransitionJob(r.Context(), mux.Vars(r)["id"], models.JobStatus(status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, "job listing status set", slog.String("id", j.ID), slog.String("status", string(j.Status)))
	writeData(w, j)
}

func (h *AdminHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.lifecycle.DeleteJobListing(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, "job listing deleted", slog.String("id", id))
	writeJSON(w, response{Success: true, ID: id}, http.StatusOK)
}

// Applications

func (h *AdminHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	f := filter(r)
	list, err := h.store.ListApplications(r.Context(), f)
	if err != nil {
		writeError(w, r, apperr.Gateway("list applications", err))
		return
	}
	if list == nil {
		list = []models.Application{}
	}
	writeData(w, page{Items: list, Limit: f.Limit, Offset: f.Offset})
}

func (h *AdminHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, err := h.store.GetApplication(r.Context(), id)
	if err := found("application", id, a != nil, err); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, a)
}

func (h *AdminHandler) TransitionApplication(w http.ResponseWriter, r *http.Request) {
	status, err := statusBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.lifecycle.TransitionApplication(r.Context(), mux.Vars(r)["id"], models.ApplicationStatus(status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, "application status set", slog.String("id", a.ID), slog.String("status", string(a.Status)))
	writeData(w, a)
}

func (h *AdminHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.lifecycle.UpdateNotes(r.Context(), mux.Vars(r)["id"], req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, a)
}

// Contact messages

func (h *AdminHandler) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	f := filter(r)
	list, err := h.store.ListContactMessages(r.Context(), f)
	if err != nil {
		writeError(w, r, apperr.Gateway("list contact messages", err))
		return
	}
	if list == nil {
		list = []models.ContactMessage{}
	}
	writeData(w, page{Items: list, Limit: f.Limit, Offset: f.Offset})
}

func (h *AdminHandler) GetContactMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	m, err := h.store.GetContactMessage(r.Context(), id)
	if err := found("contact message", id, m != nil, err); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, m)
}

// Services, projects and settings

func (h *AdminHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var in content.ServiceInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.content.CreateService(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, s.ID)
}

func (h *AdminHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListServices(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Service{}
	}
	writeData(w, list)
}

func (h *AdminHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var in content.ServiceInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.content.UpdateService(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, s)
}

func (h *AdminHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.content.DeleteService(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, response{Success: true, ID: id}, http.StatusOK)
}

func (h *AdminHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in content.ProjectInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.content.CreateProject(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, p.ID)
}

func (h *AdminHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListProjects(r.Context(), false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Project{}
	}
	writeData(w, list)
}

func (h *AdminHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var in content.ProjectInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.content.UpdateProject(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, p)
}

func (h *AdminHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.content.DeleteProject(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, response{Success: true, ID: id}, http.StatusOK)
}

func (h *AdminHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	var in content.SettingInput
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.Key = mux.Vars(r)["key"]
	s, err := h.content.PutSetting(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.audit(r, "site setting set", slog.String("key", s.Key))
	writeData(w, s)
}
