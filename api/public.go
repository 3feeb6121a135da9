package api

import (
	"net/http"

	"github.com/garnizeh/intake/internal/content"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/gorilla/mux"
)

// PublicHandler serves read-only site content.
type PublicHandler struct {
	content *content.Service
}

func NewPublicHandler(c *content.Service) *PublicHandler {
	return &PublicHandler{content: c}
}

func (h *PublicHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	jobs, err := h.content.PublishedJobs(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []models.JobListing{}
	}
	writeData(w, page{Items: jobs, Limit: limit, Offset: offset})
}

func (h *PublicHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.content.PublishedJob(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, j)
}

func (h *PublicHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListServices(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Service{}
	}
	writeData(w, list)
}

func (h *PublicHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.content.ListProjects(r.Context(), true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Project{}
	}
	writeData(w, list)
}

func (h *PublicHandler) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := h.content.Settings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, s)
}
