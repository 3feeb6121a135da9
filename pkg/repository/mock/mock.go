// Package mock provides an in-memory Persistence Gateway for tests.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

// Store implements every repository interface on maps. Set Err to make the
// next write fail; Writes counts successful writes.
type Store struct {
	mu sync.Mutex

	Quotes       map[string]models.QuoteRequest
	Jobs         map[string]models.JobListing
	Applications map[string]models.Application
	Contacts     map[string]models.ContactMessage
	Uploads      map[string]models.Upload
	Users        map[string]models.User
	Settings     map[string]models.SiteSetting
	Services     map[string]models.Service
	Projects     map[string]models.Project

	Err    error
	Writes int
}

var _ repository.QuoteRepo = (*Store)(nil)
var _ repository.JobListingRepo = (*Store)(nil)
var _ repository.ApplicationRepo = (*Store)(nil)
var _ repository.ContactRepo = (*Store)(nil)
var _ repository.UploadRepo = (*Store)(nil)
var _ repository.UserRepo = (*Store)(nil)
var _ repository.SettingRepo = (*Store)(nil)
var _ repository.ServiceRepo = (*Store)(nil)
var _ repository.ProjectRepo = (*Store)(nil)

func New() *Store {
	return &Store{
		Quotes:       map[string]models.QuoteRequest{},
		Jobs:         map[string]models.JobListing{},
		Applications: map[string]models.Application{},
		Contacts:     map[string]models.ContactMessage{},
		Uploads:      map[string]models.Upload{},
		Users:        map[string]models.User{},
		Settings:     map[string]models.SiteSetting{},
		Services:     map[string]models.Service{},
		Projects:     map[string]models.Project{},
	}
}

// write runs fn under the lock unless an injected error is pending.
func (s *Store) write(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if err := fn(); err != nil {
		return err
	}
	s.Writes++
	return nil
}

func (s *Store) read(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// newestFirst orders like the SQLite gateway: created DESC, then id.
func newestFirst[T any](items []T, key func(T) (time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi < idj
	})
}

func window[T any](items []T, f repository.ListFilter) []T {
	if f.Offset >= len(items) {
		return nil
	}
	items = items[f.Offset:]
	if f.Limit > 0 && f.Limit < len(items) {
		items = items[:f.Limit]
	}
	return items
}

// Quotes

func (s *Store) CreateQuote(ctx context.Context, q *models.QuoteRequest) error {
	return s.write(func() error { s.Quotes[q.ID] = *q; return nil })
}

func (s *Store) GetQuote(ctx context.Context, id string) (*models.QuoteRequest, error) {
	var out *models.QuoteRequest
	s.read(func() {
		if q, ok := s.Quotes[id]; ok {
			out = &q
		}
	})
	return out, nil
}

func (s *Store) ListQuotes(ctx context.Context, f repository.ListFilter) ([]models.QuoteRequest, error) {
	var out []models.QuoteRequest
	s.read(func() {
		for _, q := range s.Quotes {
			if f.Status == "" || string(q.Status) == f.Status {
				out = append(out, q)
			}
		}
	})
	newestFirst(out, func(q models.QuoteRequest) (time.Time, string) { return q.CreatedAt, q.ID })
	return window(out, f), nil
}

func (s *Store) UpdateQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus, at time.Time) error {
	return s.write(func() error {
		q, ok := s.Quotes[id]
		if !ok {
			return repository.ErrNotFound
		}
		if q.Status != from {
			return repository.ErrStaleStatus
		}
		q.Status, q.UpdatedAt = to, at
		s.Quotes[id] = q
		return nil
	})
}

// Job listings

func (s *Store) CreateJobListing(ctx context.Context, j *models.JobListing) error {
	return s.write(func() error { s.Jobs[j.ID] = *j; return nil })
}

func (s *Store) GetJobListing(ctx context.Context, id string) (*models.JobListing, error) {
	var out *models.JobListing
	s.read(func() {
		if j, ok := s.Jobs[id]; ok {
			out = &j
		}
	})
	return out, nil
}

func (s *Store) ListJobListings(ctx context.Context, f repository.ListFilter) ([]models.JobListing, error) {
	var out []models.JobListing
	s.read(func() {
		for _, j := range s.Jobs {
			if f.Status == "" || string(j.Status) == f.Status {
				out = append(out, j)
			}
		}
	})
	newestFirst(out, func(j models.JobListing) (time.Time, string) { return j.CreatedAt, j.ID })
	return window(out, f), nil
}

func (s *Store) UpdateJobListing(ctx context.Context, j *models.JobListing) error {
	return s.write(func() error {
		cur, ok := s.Jobs[j.ID]
		if !ok {
			return repository.ErrNotFound
		}
		next := *j
		next.Status = cur.Status
		next.CreatedAt = cur.CreatedAt
		s.Jobs[j.ID] = next
		return nil
	})
}

func (s *Store) UpdateJobListingStatus(ctx context.Context, id string, from, to models.JobStatus, at time.Time) error {
	return s.write(func() error {
		j, ok := s.Jobs[id]
		if !ok {
			return repository.ErrNotFound
		}
		if j.Status != from {
			return repository.ErrStaleStatus
		}
		j.Status, j.UpdatedAt = to, at
		s.Jobs[id] = j
		return nil
	})
}

func (s *Store) DeleteJobListing(ctx context.Context, id string) error {
	return s.write(func() error {
		if _, ok := s.Jobs[id]; !ok {
			return repository.ErrNotFound
		}
		for _, a := range s.Applications {
			if a.JobID == id {
				return repository.ErrHasApplications
			}
		}
		delete(s.Jobs, id)
		return nil
	})
}

// Applications

func (s *Store) CreateApplication(ctx context.Context, a *models.Application) error {
	return s.write(func() error {
		if _, ok := s.Jobs[a.JobID]; !ok {
			return fmt.Errorf("job listing %q: %w", a.JobID, repository.ErrNotFound)
		}
		s.Applications[a.ID] = *a
		return nil
	})
}

func (s *Store) ApplyToListing(ctx context.Context, a *models.Application) error {
	return s.write(func() error {
		j, ok := s.Jobs[a.JobID]
		if !ok {
			return repository.ErrNotFound
		}
		if j.Status != models.JobPublished {
			return repository.ErrListingNotOpen
		}
		s.Applications[a.ID] = *a
		return nil
	})
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	var out *models.Application
	s.read(func() {
		if a, ok := s.Applications[id]; ok {
			out = &a
		}
	})
	return out, nil
}

func (s *Store) ListApplications(ctx context.Context, f repository.ListFilter) ([]models.Application, error) {
	var out []models.Application
	s.read(func() {
		for _, a := range s.Applications {
			if (f.Status == "" || string(a.Status) == f.Status) && (f.JobID == "" || a.JobID == f.JobID) {
				out = append(out, a)
			}
		}
	})
	newestFirst(out, func(a models.Application) (time.Time, string) { return a.CreatedAt, a.ID })
	return window(out, f), nil
}

func (s *Store) UpdateApplicationStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) error {
	return s.write(func() error {
		a, ok := s.Applications[id]
		if !ok {
			return repository.ErrNotFound
		}
		if a.Status != from {
			return repository.ErrStaleStatus
		}
		a.Status, a.UpdatedAt = to, at
		s.Applications[id] = a
		return nil
	})
}

func (s *Store) UpdateApplicationNotes(ctx context.Context, id, notes string, at time.Time) error {
	return s.write(func() error {
		a, ok := s.Applications[id]
		if !ok {
			return repository.ErrNotFound
		}
		a.Notes, a.UpdatedAt = notes, at
		s.Applications[id] = a
		return nil
	})
}

// Contact messages

func (s *Store) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	return s.write(func() error { s.Contacts[m.ID] = *m; return nil })
}

func (s *Store) GetContactMessage(ctx context.Context, id string) (*models.ContactMessage, error) {
	var out *models.ContactMessage
	s.read(func() {
		if m, ok := s.Contacts[id]; ok {
			out = &m
		}
	})
	return out, nil
}

func (s *Store) ListContactMessages(ctx context.Context, f repository.ListFilter) ([]models.ContactMessage, error) {
	var out []models.ContactMessage
	s.read(func() {
		for _, m := range s.Contacts {
			out = append(out, m)
		}
	})
	newestFirst(out, func(m models.ContactMessage) (time.Time, string) { return m.CreatedAt, m.ID })
	return window(out, f), nil
}

// Uploads

func (s *Store) CreateUpload(ctx context.Context, u *models.Upload) error {
	return s.write(func() error { s.Uploads[u.ID] = *u; return nil })
}

func (s *Store) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	var out *models.Upload
	s.read(func() {
		if u, ok := s.Uploads[id]; ok {
			out = &u
		}
	})
	return out, nil
}

func (s *Store) ClaimUpload(ctx context.Context, url string, at time.Time) error {
	return s.write(func() error {
		for id, u := range s.Uploads {
			if u.URL != url {
				continue
			}
			if u.ClaimedAt == nil {
				claimed := at
				u.ClaimedAt = &claimed
				s.Uploads[id] = u
			}
			return nil
		}
		return repository.ErrNotFound
	})
}

func (s *Store) DeleteUnclaimedUpload(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.write(func() error {
		u, ok := s.Uploads[id]
		if !ok || u.ClaimedAt != nil {
			return nil
		}
		for _, q := range s.Quotes {
			if q.FileURL == u.URL {
				return nil
			}
		}
		for _, a := range s.Applications {
			if a.CVURL == u.URL {
				return nil
			}
		}
		delete(s.Uploads, id)
		deleted = true
		return nil
	})
	return deleted, err
}

// Users

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.write(func() error { s.Users[u.ID] = *u; return nil })
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	s.read(func() {
		if u, ok := s.Users[id]; ok {
			out = &u
		}
	})
	return out, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	s.read(func() {
		for _, u := range s.Users {
			if u.Email == email {
				u := u
				out = &u
				return
			}
		}
	})
	return out, nil
}

// Content

func (s *Store) ListSettings(ctx context.Context) ([]models.SiteSetting, error) {
	var out []models.SiteSetting
	s.read(func() {
		for _, v := range s.Settings {
			out = append(out, v)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) PutSetting(ctx context.Context, st *models.SiteSetting) error {
	return s.write(func() error { s.Settings[st.Key] = *st; return nil })
}

func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	return s.write(func() error {
		for _, v := range s.Services {
			if v.Slug == svc.Slug {
				return repository.ErrDuplicate
			}
		}
		s.Services[svc.ID] = *svc
		return nil
	})
}

func (s *Store) GetService(ctx context.Context, id string) (*models.Service, error) {
	var out *models.Service
	s.read(func() {
		if v, ok := s.Services[id]; ok {
			out = &v
		}
	})
	return out, nil
}

func (s *Store) ListServices(ctx context.Context, publishedOnly bool) ([]models.Service, error) {
	var out []models.Service
	s.read(func() {
		for _, v := range s.Services {
			if !publishedOnly || v.Published {
				out = append(out, v)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (s *Store) UpdateService(ctx context.Context, svc *models.Service) error {
	return s.write(func() error {
		if _, ok := s.Services[svc.ID]; !ok {
			return repository.ErrNotFound
		}
		for _, v := range s.Services {
			if v.Slug == svc.Slug && v.ID != svc.ID {
				return repository.ErrDuplicate
			}
		}
		s.Services[svc.ID] = *svc
		return nil
	})
}

func (s *Store) DeleteService(ctx context.Context, id string) error {
	return s.write(func() error {
		if _, ok := s.Services[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.Services, id)
		for pid, p := range s.Projects {
			if p.ServiceID == id {
				p.ServiceID = ""
				s.Projects[pid] = p
			}
		}
		return nil
	})
}

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	return s.write(func() error {
		for _, v := range s.Projects {
			if v.Slug == p.Slug {
				return repository.ErrDuplicate
			}
		}
		s.Projects[p.ID] = *p
		return nil
	})
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var out *models.Project
	s.read(func() {
		if v, ok := s.Projects[id]; ok {
			out = &v
		}
	})
	return out, nil
}

func (s *Store) ListProjects(ctx context.Context, publishedOnly bool) ([]models.Project, error) {
	var out []models.Project
	s.read(func() {
		for _, v := range s.Projects {
			if !publishedOnly || v.Published {
				out = append(out, v)
			}
		}
	})
	newestFirst(out, func(p models.Project) (time.Time, string) { return p.UpdatedAt, p.ID })
	return out, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	return s.write(func() error {
		if _, ok := s.Projects[p.ID]; !ok {
			return repository.ErrNotFound
		}
		for _, v := range s.Projects {
			if v.Slug == p.Slug && v.ID != p.ID {
				return repository.ErrDuplicate
			}
		}
		s.Projects[p.ID] = *p
		return nil
	})
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.write(func() error {
		if _, ok := s.Projects[id]; !ok {
			return repository.ErrNotFound
		}
		delete(s.Projects, id)
		return nil
	})
}
