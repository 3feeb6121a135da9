package repository

import (
	"context"
	"errors"
	"time"

	"github.com/garnizeh/intake/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Getters return (nil, nil) when the row does not exist.

// ErrNotFound is returned by update and delete methods when no row has the id.
var ErrNotFound = errors.New("record not found")

// ErrStaleStatus is returned by status writes whose expected current status
// no longer matches the stored one.
var ErrStaleStatus = errors.New("status changed concurrently")

// ErrHasApplications is returned when deleting a job listing that still owns applications.
var ErrHasApplications = errors.New("job listing has applications")

// ErrListingNotOpen is returned when an application targets a listing that is
// not published.
var ErrListingNotOpen = errors.New("job listing is not open")

// ErrDuplicate is returned when a unique value such as a slug is already taken.
var ErrDuplicate = errors.New("duplicate value")

// ListFilter is shared by the list methods. Zero Limit means the implementation default.
type ListFilter struct {
	Status string
	JobID  string
	Limit  int
	Offset int
}

type QuoteRepo interface {
	CreateQuote(ctx context.Context, q *models.QuoteRequest) error
	GetQuote(ctx context.Context, id string) (*models.QuoteRequest, error)
	ListQuotes(ctx context.Context, f ListFilter) ([]models.QuoteRequest, error)
	UpdateQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus, at time.Time) error
}

type JobListingRepo interface {
	CreateJobListing(ctx context.Context, j *models.JobListing) error
	GetJobListing(ctx context.Context, id string) (*models.JobListing, error)
	ListJobListings(ctx context.Context, f ListFilter) ([]models.JobListing, error)
	UpdateJobListing(ctx context.Context, j *models.JobListing) error
	UpdateJobListingStatus(ctx context.Context, id string, from, to models.JobStatus, at time.Time) error
	DeleteJobListing(ctx context.Context, id string) error
}

type ApplicationRepo interface {
	CreateApplication(ctx context.Context, a *models.Application) error
	// ApplyToListing stores a only while its listing is PUBLISHED, checked in
	// the same write. It returns ErrNotFound or ErrListingNotOpen otherwise.
	ApplyToListing(ctx context.Context, a *models.Application) error
	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListApplications(ctx context.Context, f ListFilter) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) error
	UpdateApplicationNotes(ctx context.Context, id, notes string, at time.Time) error
}

type ContactRepo interface {
	CreateContactMessage(ctx context.Context, m *models.ContactMessage) error
	GetContactMessage(ctx context.Context, id string) (*models.ContactMessage, error)
	ListContactMessages(ctx context.Context, f ListFilter) ([]models.ContactMessage, error)
}

type UploadRepo interface {
	CreateUpload(ctx context.Context, u *models.Upload) error
	GetUpload(ctx context.Context, id string) (*models.Upload, error)
	// ClaimUpload marks the upload stored at url as attached to a submission.
	// It returns ErrNotFound when no upload has that url.
	ClaimUpload(ctx context.Context, url string, at time.Time) error
	// DeleteUnclaimedUpload removes the record only if it is unclaimed and no
	// quote request or application points at its url, in a single write.
	DeleteUnclaimedUpload(ctx context.Context, id string) (bool, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type SettingRepo interface {
	ListSettings(ctx context.Context) ([]models.SiteSetting, error)
	PutSetting(ctx context.Context, s *models.SiteSetting) error
}

type ServiceRepo interface {
	CreateService(ctx context.Context, s *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context, publishedOnly bool) ([]models.Service, error)
	UpdateService(ctx context.Context, s *models.Service) error
	DeleteService(ctx context.Context, id string) error
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context, publishedOnly bool) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error
}
