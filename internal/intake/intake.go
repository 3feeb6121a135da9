// Package intake holds the public submission handlers. They are the only
// code paths that create quote requests, applications and contact messages.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/storage"
	"github.com/garnizeh/intake/internal/upload"
	"github.com/garnizeh/intake/internal/validation"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
	"github.com/google/uuid"
)

// DefaultOrphanRetention is how long an unreferenced upload is kept.
const DefaultOrphanRetention = 24 * time.Hour

// Scheduler queues delayed background work.
type Scheduler interface {
	Schedule(ctx context.Context, typ string, payload any, at time.Time, priority int, maxAttempts int) (int64, error)
}

// Store is the slice of the Persistence Gateway intake writes to.
type Store interface {
	repository.QuoteRepo
	repository.JobListingRepo
	repository.ApplicationRepo
	repository.ContactRepo
	repository.UploadRepo
}

// Service runs validate-then-write for every public form.
type Service struct {
	schemas   *validation.Registry
	store     Store
	guard     *upload.Guard
	blobs     storage.BlobStore
	scheduler Scheduler
	retention time.Duration
	baseURL   string
	logger    *slog.Logger
	now       func() time.Time
}

// Options configures a Service. Guard, Blobs and Scheduler are only needed
// for RecordUpload; a nil Scheduler disables orphan reaping. Attachment links
// under UploadBaseURL must name a recorded upload, which the submission then
// claims so the reaper keeps it.
type Options struct {
	Schemas         *validation.Registry
	Store           Store
	Guard           *upload.Guard
	Blobs           storage.BlobStore
	Scheduler       Scheduler
	OrphanRetention time.Duration
	UploadBaseURL   string
	Logger          *slog.Logger
	Now             func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		schemas:   opts.Schemas,
		store:     opts.Store,
		guard:     opts.Guard,
		blobs:     opts.Blobs,
		scheduler: opts.Scheduler,
		retention: opts.OrphanRetention,
		baseURL:   strings.TrimRight(opts.UploadBaseURL, "/"),
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.retention <= 0 {
		s.retention = DefaultOrphanRetention
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// QuoteInput is the public quote request form.
type QuoteInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	ServiceType string `json:"serviceType"`
	Urgency     string `json:"urgency"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
}

// ApplicationInput is the public job application form.
type ApplicationInput struct {
	JobID    string `json:"jobId"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CVURL    string `json:"cvUrl"`
	Message  string `json:"message"`
}

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// stamp is the creation time; stored times have millisecond precision.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// decode trims and validates raw against schema and unmarshals the checked
// document into v.
func (s *Service) decode(ctx context.Context, schema string, raw []byte, v any) error {
	norm, err := s.schemas.Normalize(ctx, schema, raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(norm, v); err != nil {
		return apperr.NewValidationError(map[string]string{validation.BodyField: "must be a JSON object"})
	}
	return nil
}

// claim marks an attachment served from this service's upload directory as
// used. Links elsewhere are stored as given.
func (s *Service) claim(ctx context.Context, field, url string) error {
	if url == "" || s.baseURL == "" || !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	err := s.store.ClaimUpload(ctx, url, s.stamp())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NewValidationError(map[string]string{field: "This attachment is no longer available, please upload the file again"})
	default:
		return apperr.Gateway("claim upload", err)
	}
}

// SubmitQuote validates raw and stores a new quote request with status new.
func (s *Service) SubmitQuote(ctx context.Context, raw []byte) (*models.QuoteRequest, error) {
	var in QuoteInput
	if err := s.decode(ctx, validation.QuoteRequest, raw, &in); err != nil {
		return nil, err
	}

	if err := s.claim(ctx, "fileUrl", in.FileURL); err != nil {
		return nil, err
	}

	at := s.stamp()
	q := &models.QuoteRequest{
		ID:          uuid.NewString(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Company:     in.Company,
		Phone:       in.Phone,
		ServiceType: in.ServiceType,
		Urgency:     in.Urgency,
		Description: in.Description,
		FileURL:     in.FileURL,
		Status:      models.QuoteNew,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := s.store.CreateQuote(ctx, q); err != nil {
		return nil, apperr.Gateway("create quote request", err)
	}
	s.logger.Info("quote request received", slog.String("id", q.ID), slog.String("service_type", q.ServiceType), slog.Bool("attachment", q.FileURL != ""))
	return q, nil
}

// SubmitApplication validates raw, checks the listing is published and stores
// a new application with status NEW.
func (s *Service) SubmitApplication(ctx context.Context, raw []byte) (*models.Application, error) {
	var in ApplicationInput
	if err := s.decode(ctx, validation.Application, raw, &in); err != nil {
		return nil, err
	}

	jobID := in.JobID
	listing, err := s.store.GetJobListing(ctx, jobID)
	if err != nil {
		return nil, apperr.Gateway("load job listing", err)
	}
	if listing == nil {
		return nil, fmt.Errorf("job listing %s: %w", jobID, apperr.ErrNotFound)
	}
	if listing.Status != models.JobPublished {
		return nil, fmt.Errorf("job listing %s is %s: %w", jobID, listing.Status, apperr.ErrListingNotOpen)
	}

	if err := s.claim(ctx, "cvUrl", in.CVURL); err != nil {
		return nil, err
	}

	at := s.stamp()
	a := &models.Application{
		ID:        uuid.NewString(),
		JobID:     listing.ID,
		FullName:  in.FullName,
		Email:     in.Email,
		Phone:     in.Phone,
		CVURL:     in.CVURL,
		Message:   in.Message,
		Status:    models.ApplicationNew,
		CreatedAt: at,
		UpdatedAt: at,
	}
	// The listing may have closed since it was read; the insert re-checks.
	if err := s.store.ApplyToListing(ctx, a); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("job listing %s: %w", jobID, apperr.ErrNotFound)
		case errors.Is(err, repository.ErrListingNotOpen):
			return nil, fmt.Errorf("job listing %s closed: %w", jobID, apperr.ErrListingNotOpen)
		default:
			return nil, apperr.Gateway("create application", err)
		}
	}
	s.logger.Info("application received", slog.String("id", a.ID), slog.String("job_id", a.JobID))
	return a, nil
}

// SubmitContact validates raw and stores a contact message.
func (s *Service) SubmitContact(ctx context.Context, raw []byte) (*models.ContactMessage, error) {
	var in ContactInput
	if err := s.decode(ctx, validation.Contact, raw, &in); err != nil {
		return nil, err
	}

	m := &models.ContactMessage{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Subject:   in.Subject,
		Message:   in.Message,
		CreatedAt: s.stamp(),
	}
	if err := s.store.CreateContactMessage(ctx, m); err != nil {
		return nil, apperr.Gateway("create contact message", err)
	}
	s.logger.Info("contact message received", slog.String("id", m.ID))
	return m, nil
}

// RecordUpload passes f through the upload guard, records the stored blob and
// schedules its removal in case no submission ever references it.
func (s *Service) RecordUpload(ctx context.Context, f upload.File) (*models.Upload, error) {
	res, err := s.guard.Accept(ctx, f)
	if err != nil {
		return nil, err
	}

	u := &models.Upload{
		ID:        uuid.NewString(),
		Filename:  res.Filename,
		Object:    res.Key,
		URL:       res.URL,
		MimeType:  res.MimeType,
		Size:      res.Size,
		CreatedAt: s.stamp(),
	}
	if err := s.store.CreateUpload(ctx, u); err != nil {
		if derr := s.blobs.Delete(ctx, res.Key); derr != nil {
			s.logger.Error("failed to remove unrecorded blob", slog.String("key", res.Key), slog.Any("err", derr))
		}
		return nil, apperr.Gateway("record upload", err)
	}

	if s.scheduler != nil {
		at := s.now().Add(s.retention)
		if _, err := s.scheduler.Schedule(ctx, upload.ReapJobType, upload.ReapPayload{UploadID: u.ID}, at, 0, 3); err != nil {
			s.logger.Warn("failed to schedule upload reap", slog.String("upload_id", u.ID), slog.Any("err", err))
		}
	}
	return u, nil
}
