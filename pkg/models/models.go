package models

import (
	"encoding/json"
	"time"
)

// Domain models matching the database schema in db/migrations/0001_init.sql

type QuoteStatus string

const (
	QuoteNew      QuoteStatus = "new"
	QuoteInReview QuoteStatus = "in-review"
	QuoteQuoted   QuoteStatus = "quoted"
	QuoteClosed   QuoteStatus = "closed"
)

type JobStatus string

const (
	JobDraft     JobStatus = "DRAFT"
	JobPublished JobStatus = "PUBLISHED"
	JobArchived  JobStatus = "ARCHIVED"
)

type JobType string

const (
	JobFullTime   JobType = "FULL_TIME"
	JobPartTime   JobType = "PART_TIME"
	JobContract   JobType = "CONTRACT"
	JobInternship JobType = "INTERNSHIP"
	JobTemporary  JobType = "TEMPORARY"
)

type ApplicationStatus string

const (
	ApplicationNew       ApplicationStatus = "NEW"
	ApplicationReviewing ApplicationStatus = "REVIEWING"
	ApplicationInterview ApplicationStatus = "INTERVIEW"
	ApplicationOffer     ApplicationStatus = "OFFER"
	ApplicationRejected  ApplicationStatus = "REJECTED"
	ApplicationHired     ApplicationStatus = "HIRED"
)

// DefaultLocation is stored when a listing is created without one.
const DefaultLocation = "On-site"

type QuoteRequest struct {
	ID          string      `json:"id"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Email       string      `json:"email"`
	Company     string      `json:"company,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	ServiceType string      `json:"serviceType"`
	Urgency     string      `json:"urgency"`
	Description string      `json:"description"`
	FileURL     string      `json:"fileUrl,omitempty"`
	Status      QuoteStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type SalaryRange struct {
	Min      int64  `json:"min" validate:"gte=0"`
	Max      int64  `json:"max" validate:"gtefield=Min"`
	Currency string `json:"currency" validate:"required,len=3"`
}

type JobListing struct {
	ID           string          `json:"id"`
	Department   string          `json:"department"`
	Location     string          `json:"location"`
	JobType      JobType         `json:"jobType"`
	Salary       *SalaryRange    `json:"salary,omitempty"`
	Status       JobStatus       `json:"status"`
	Title        json.RawMessage `json:"title"`
	Description  json.RawMessage `json:"description"`
	Requirements json.RawMessage `json:"requirements,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Application struct {
	ID        string            `json:"id"`
	JobID     string            `json:"jobId"`
	FullName  string            `json:"fullName"`
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	CVURL     string            `json:"cvUrl"`
	Message   string            `json:"message,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Upload records a blob accepted by the upload guard.
type Upload struct {
	ID        string     `json:"id"`
	Filename  string     `json:"filename"`
	Object    string     `json:"-"`
	URL       string     `json:"url"`
	MimeType  string     `json:"mimeType"`
	Size      int64      `json:"size"`
	CreatedAt time.Time  `json:"createdAt"`
	ClaimedAt *time.Time `json:"claimedAt,omitempty"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name" validate:"required"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SiteSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Service struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Body      string    `json:"body,omitempty"`
	Position  int       `json:"position"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Project struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ServiceID string    `json:"serviceId,omitempty"`
	Published bool      `json:"published"`
	UpdatedAt time.Time `json:"updatedAt"`
}
