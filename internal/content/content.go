// Package content manages staff-edited records: job listing content,
// services, projects and site settings. Status changes on job listings go
// through the lifecycle package instead.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/validation"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// maxSlugAttempts bounds the -2, -3, ... suffixes tried for a taken slug.
const maxSlugAttempts = 20

type Store interface {
	repository.JobListingRepo
	repository.ServiceRepo
	repository.ProjectRepo
	repository.SettingRepo
}

type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// JobListingInput is the staff form for creating or editing a listing.
// Status is honored on create only.
type JobListingInput struct {
	Department   string              `json:"department" validate:"required,max=100"`
	Location     string              `json:"location" validate:"max=100"`
	JobType      models.JobType      `json:"jobType" validate:"required,oneof=FULL_TIME PART_TIME CONTRACT INTERNSHIP TEMPORARY"`
	Salary       *models.SalaryRange `json:"salary"`
	Status       models.JobStatus    `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED"`
	Title        json.RawMessage     `json:"title" validate:"required,json"`
	Description  json.RawMessage     `json:"description" validate:"required,json"`
	Requirements json.RawMessage     `json:"requirements" validate:"omitempty,json"`
}

func (in *JobListingInput) normalize() {
	in.Department = strings.TrimSpace(in.Department)
	in.Location = strings.TrimSpace(in.Location)
	if in.Location == "" {
		in.Location = models.DefaultLocation
	}
	if in.Salary != nil {
		in.Salary.Currency = strings.ToUpper(strings.TrimSpace(in.Salary.Currency))
	}
}

// CreateJobListing stores a new listing. Without an explicit status it
// starts as DRAFT.
func (s *Service) CreateJobListing(ctx context.Context, in JobListingInput) (*models.JobListing, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = models.JobDraft
	}
	at := s.stamp()
	j := &models.JobListing{
		ID:           uuid.NewString(),
		Department:   in.Department,
		Location:     in.Location,
		JobType:      in.JobType,
		Salary:       in.Salary,
		Status:       status,
		Title:        in.Title,
		Description:  in.Description,
		Requirements: in.Requirements,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	if err := s.store.CreateJobListing(ctx, j); err != nil {
		return nil, apperr.Gateway("create job listing", err)
	}
	s.logger.Info("job listing created", slog.String("id", j.ID), slog.String("status", string(j.Status)))
	return j, nil
}

// UpdateJobListing replaces the content of a listing and keeps its status.
func (s *Service) UpdateJobListing(ctx context.Context, id string, in JobListingInput) (*models.JobListing, error) {
	in.normalize()
	in.Status = ""
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	cur, err := s.store.GetJobListing(ctx, id)
	if err != nil {
		return nil, apperr.Gateway("load job listing", err)
	}
	if cur == nil {
		return nil, fmt.Errorf("job listing %s: %w", id, apperr.ErrNotFound)
	}

	cur.Department = in.Department
	cur.Location = in.Location
	cur.JobType = in.JobType
	cur.Salary = in.Salary
	cur.Title = in.Title
	cur.Description = in.Description
	cur.Requirements = in.Requirements
	cur.UpdatedAt = s.stamp()
	if err := s.store.UpdateJobListing(ctx, cur); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("job listing %s: %w", id, apperr.ErrNotFound)
		}
		return nil, apperr.Gateway("update job listing", err)
	}
	return cur, nil
}

// PublishedJobs lists the listings visible to the public.
func (s *Service) PublishedJobs(ctx context.Context, limit, offset int) ([]models.JobListing, error) {
	jobs, err := s.store.ListJobListings(ctx, repository.ListFilter{Status: string(models.JobPublished), Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperr.Gateway("list job listings", err)
	}
	return jobs, nil
}

// PublishedJob returns a listing only while it is PUBLISHED.
func (s *Service) PublishedJob(ctx context.Context, id string) (*models.JobListing, error) {
	j, err := s.store.GetJobListing(ctx, id)
	if err != nil {
		return nil, apperr.Gateway("load job listing", err)
	}
	if j == nil || j.Status != models.JobPublished {
		return nil, fmt.Errorf("job listing %s: %w", id, apperr.ErrNotFound)
	}
	return j, nil
}

// SettingInput sets one site setting. Value is any JSON document.
type SettingInput struct {
	Key   string          `json:"key" validate:"required,max=64,key"`
	Value json.RawMessage `json:"value" validate:"required,json"`
}

func (s *Service) PutSetting(ctx context.Context, in SettingInput) (*models.SiteSetting, error) {
	in.Key = strings.TrimSpace(in.Key)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	st := &models.SiteSetting{Key: in.Key, Value: in.Value, UpdatedAt: s.stamp()}
	if err := s.store.PutSetting(ctx, st); err != nil {
		return nil, apperr.Gateway("put setting", err)
	}
	s.logger.Info("site setting updated", slog.String("key", st.Key))
	return st, nil
}

// Settings returns every site setting keyed by name.
func (s *Service) Settings(ctx context.Context) (map[string]json.RawMessage, error) {
	list, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, apperr.Gateway("list settings", err)
	}
	out := make(map[string]json.RawMessage, len(list))
	for _, st := range list {
		out[st.Key] = st.Value
	}
	return out, nil
}

// withUniqueSlug calls write with base, then base-2, base-3 and so on while
// the slug is taken. An explicit slug is tried once.
func withUniqueSlug(base string, explicit bool, write func(slug string) error) error {
	candidate := base
	for i := 1; ; i++ {
		err := write(candidate)
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		if explicit || i >= maxSlugAttempts {
			return fmt.Errorf("slug %q is taken: %w", candidate, apperr.ErrConflict)
		}
		candidate = fmt.Sprintf("%s-%d", base, i+1)
	}
}

func slugFor(explicit, title string) (string, bool) {
	if s := slug.Make(explicit); s != "" {
		return s, true
	}
	return slug.Make(title), false
}
