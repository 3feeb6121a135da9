package intake_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/internal/intake"
	"github.com/garnizeh/intake/internal/storage"
	"github.com/garnizeh/intake/internal/upload"
	"github.com/garnizeh/intake/internal/validation"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 3, 2, 10, 4, 5, 123456789, time.UTC)

type blobs struct {
	stored  int
	deleted []string
}

func (b *blobs) Store(ctx context.Context, r io.Reader, filename string) (*storage.Object, error) {
	b.stored++
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	return &storage.Object{Key: "obj-" + filename, URL: "http://files.test/obj-" + filename}, nil
}

func (b *blobs) Delete(ctx context.Context, key string) error {
	b.deleted = append(b.deleted, key)
	return nil
}

type scheduled struct {
	typ     string
	payload any
	at      time.Time
}

type scheduler struct {
	calls []scheduled
	err   error
}

func (s *scheduler) Schedule(ctx context.Context, typ string, payload any, at time.Time, priority, maxAttempts int) (int64, error) {
	s.calls = append(s.calls, scheduled{typ, payload, at})
	return int64(len(s.calls)), s.err
}

type fixture struct {
	svc   *intake.Service
	store *mock.Store
	blobs *blobs
	sched *scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg, err := validation.NewRegistry()
	require.NoError(t, err)
	f := &fixture{store: mock.New(), blobs: &blobs{}, sched: &scheduler{}}
	f.svc = intake.New(intake.Options{
		Schemas:         reg,
		Store:           f.store,
		Guard:           upload.NewGuard(f.blobs, 0, nil, nil),
		Blobs:           f.blobs,
		Scheduler:       f.sched,
		OrphanRetention: time.Hour,
		UploadBaseURL:   "http://files.test",
		Now:             func() time.Time { return fixed },
	})
	return f
}

func body(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func anaLee() map[string]any {
	return map[string]any{
		"firstName":   "Ana",
		"lastName":    "Lee",
		"email":       "ana@x.com",
		"description": "Need a bracket machined",
		"serviceType": "Machining",
		"urgency":     "Medium",
	}
}

func TestSubmitQuoteExample(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.SubmitQuote(context.Background(), body(t, anaLee()))
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, models.QuoteNew, q.Status)
	assert.Empty(t, q.FileURL)
	assert.Equal(t, fixed.Truncate(time.Millisecond), q.CreatedAt)
	assert.Equal(t, 1, f.store.Writes)
}

func TestSubmitQuoteRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	up, err := f.svc.RecordUpload(ctx, upload.File{Filename: "drawing.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	require.NoError(t, err)

	in := anaLee()
	in["company"] = "Acme"
	in["phone"] = "+1 555 010 0100"
	in["fileUrl"] = up.URL
	in["status"] = "closed"

	created, err := f.svc.SubmitQuote(ctx, body(t, in))
	require.NoError(t, err)

	got, err := f.store.GetQuote(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *created, *got)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "Lee", got.LastName)
	assert.Equal(t, "ana@x.com", got.Email)
	assert.Equal(t, "Acme", got.Company)
	assert.Equal(t, "+1 555 010 0100", got.Phone)
	assert.Equal(t, "Machining", got.ServiceType)
	assert.Equal(t, "Medium", got.Urgency)
	assert.Equal(t, "Need a bracket machined", got.Description)
	assert.Equal(t, "http://files.test/obj-drawing.pdf", got.FileURL)
	assert.Equal(t, models.QuoteNew, got.Status, "client cannot choose the initial status")

	claimed, err := f.store.GetUpload(ctx, up.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.ClaimedAt)
	assert.Equal(t, fixed.Truncate(time.Millisecond), *claimed.ClaimedAt)
}

func TestSubmitQuoteTrimsBeforeValidating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	padded := anaLee()
	padded["description"] = "   fix         "
	_, err := f.svc.SubmitQuote(ctx, body(t, padded))
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, ve.Fields, "description")
	assert.Zero(t, f.store.Writes)

	spaced := anaLee()
	spaced["firstName"] = "  Ana  "
	spaced["phone"] = "     "
	created, err := f.svc.SubmitQuote(ctx, body(t, spaced))
	require.NoError(t, err)

	got, err := f.store.GetQuote(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Empty(t, got.Phone)
}

func TestSubmitQuoteRejectsReapedAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := anaLee()
	in["fileUrl"] = "http://files.test/obj-gone.pdf"
	_, err := f.svc.SubmitQuote(ctx, body(t, in))
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, ve.Fields, "fileUrl")
	assert.Empty(t, f.store.Quotes)

	in["fileUrl"] = "https://drive.example.com/drawing.pdf"
	q, err := f.svc.SubmitQuote(ctx, body(t, in))
	require.NoError(t, err)
	assert.Equal(t, "https://drive.example.com/drawing.pdf", q.FileURL)
}

func TestSubmitQuoteRejectsWithoutWriting(t *testing.T) {
	tests := map[string]func(m map[string]any){
		"missing description": func(m map[string]any) { delete(m, "description") },
		"invalid email":       func(m map[string]any) { m["email"] = "ana.x.com" },
		"empty email":         func(m map[string]any) { m["email"] = "" },
		"bad urgency":         func(m map[string]any) { m["urgency"] = "ASAP" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			m := anaLee()
			mutate(m)

			_, err := f.svc.SubmitQuote(context.Background(), body(t, m))
			_, ok := apperr.IsValidation(err)
			assert.True(t, ok, "got %v", err)
			assert.Zero(t, f.store.Writes)
			assert.Empty(t, f.store.Quotes)
		})
	}
}

func TestSubmitQuoteGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("database is locked")

	_, err := f.svc.SubmitQuote(context.Background(), body(t, anaLee()))
	assert.ErrorIs(t, err, apperr.ErrGateway)
}

func seedListing(t *testing.T, f *fixture, id string, status models.JobStatus) {
	t.Helper()
	require.NoError(t, f.store.CreateJobListing(context.Background(), &models.JobListing{
		ID: id, Department: "Shop", Location: models.DefaultLocation, JobType: models.JobFullTime, Status: status,
		Title: json.RawMessage(`{"en":"Machinist"}`), Description: json.RawMessage(`{"en":"CNC work"}`),
	}))
	f.store.Writes = 0
}

func application(jobID string) map[string]any {
	return map[string]any{
		"jobId":    jobID,
		"fullName": "Sam Doe",
		"email":    "sam@x.com",
		"phone":    "555-0100",
		"cvUrl":    "https://drive.example.com/sam-cv.pdf",
	}
}

func TestSubmitApplication(t *testing.T) {
	f := newFixture(t)
	seedListing(t, f, "open", models.JobPublished)
	seedListing(t, f, "draft", models.JobDraft)
	seedListing(t, f, "archived", models.JobArchived)
	ctx := context.Background()

	a, err := f.svc.SubmitApplication(ctx, body(t, application("open")))
	require.NoError(t, err)
	assert.Equal(t, "open", a.JobID)
	assert.Equal(t, models.ApplicationNew, a.Status)
	assert.Empty(t, a.Notes)

	for _, id := range []string{"draft", "archived"} {
		_, err := f.svc.SubmitApplication(ctx, body(t, application(id)))
		assert.ErrorIs(t, err, apperr.ErrListingNotOpen, id)
	}

	_, err = f.svc.SubmitApplication(ctx, body(t, application("nope")))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	m := application("open")
	delete(m, "cvUrl")
	_, err = f.svc.SubmitApplication(ctx, body(t, m))
	_, ok := apperr.IsValidation(err)
	assert.True(t, ok)

	assert.Equal(t, 1, f.store.Writes)
}

func TestSubmitApplicationClaimsUpload(t *testing.T) {
	f := newFixture(t)
	seedListing(t, f, "open", models.JobPublished)
	ctx := context.Background()

	up, err := f.svc.RecordUpload(ctx, upload.File{Filename: "cv.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	require.NoError(t, err)

	m := application("open")
	m["cvUrl"] = up.URL
	a, err := f.svc.SubmitApplication(ctx, body(t, m))
	require.NoError(t, err)
	assert.Equal(t, up.URL, a.CVURL)

	got, err := f.store.GetUpload(ctx, up.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ClaimedAt)

	m["cvUrl"] = "http://files.test/obj-reaped.pdf"
	_, err = f.svc.SubmitApplication(ctx, body(t, m))
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok, "got %v", err)
	assert.Contains(t, ve.Fields, "cvUrl")
	assert.Len(t, f.store.Applications, 1)
}

// staleListings reports every listing as published, as a read taken just
// before an archive would.
type staleListings struct {
	*mock.Store
}

func (s staleListings) GetJobListing(ctx context.Context, id string) (*models.JobListing, error) {
	j, err := s.Store.GetJobListing(ctx, id)
	if j != nil {
		j.Status = models.JobPublished
	}
	return j, err
}

func TestSubmitApplicationListingClosedMeanwhile(t *testing.T) {
	f := newFixture(t)
	seedListing(t, f, "closing", models.JobArchived)
	reg, err := validation.NewRegistry()
	require.NoError(t, err)
	svc := intake.New(intake.Options{Schemas: reg, Store: staleListings{f.store}})

	_, err = svc.SubmitApplication(context.Background(), body(t, application("closing")))
	assert.ErrorIs(t, err, apperr.ErrListingNotOpen)
	assert.Empty(t, f.store.Applications)
	assert.Zero(t, f.store.Writes)
}

func TestSubmitContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.svc.SubmitContact(ctx, body(t, map[string]string{
		"name": " Bo ", "email": "bo@x.com", "subject": "Hours", "message": "Open on Saturday?",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Bo", m.Name)

	_, err = f.svc.SubmitContact(ctx, []byte(`{"name":"Bo"}`))
	_, ok := apperr.IsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.store.Writes)
}

var pdf = []byte("%PDF-1.4\n%%EOF\n")

func TestRecordUpload(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.RecordUpload(context.Background(), upload.File{Filename: "cv.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	require.NoError(t, err)
	assert.Equal(t, "cv.pdf", u.Filename)
	assert.Equal(t, "http://files.test/obj-cv.pdf", u.URL)
	assert.Contains(t, f.store.Uploads, u.ID)

	require.Len(t, f.sched.calls, 1)
	assert.Equal(t, upload.ReapJobType, f.sched.calls[0].typ)
	assert.Equal(t, upload.ReapPayload{UploadID: u.ID}, f.sched.calls[0].payload)
	assert.Equal(t, fixed.Add(time.Hour), f.sched.calls[0].at)
}

func TestRecordUploadRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordUpload(context.Background(), upload.File{Filename: "cv.docx", Size: 10, Content: bytes.NewReader(pdf)})
	assert.ErrorIs(t, err, apperr.ErrUnsupportedType)
	assert.Zero(t, f.blobs.stored)
	assert.Empty(t, f.store.Uploads)
	assert.Empty(t, f.sched.calls)
}

func TestRecordUploadRemovesBlobWhenRecordFails(t *testing.T) {
	f := newFixture(t)
	f.store.Err = errors.New("disk I/O error")

	_, err := f.svc.RecordUpload(context.Background(), upload.File{Filename: "cv.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	assert.ErrorIs(t, err, apperr.ErrGateway)
	assert.Equal(t, []string{"obj-cv.pdf"}, f.blobs.deleted)
	assert.Empty(t, f.sched.calls)
}

func TestRecordUploadSurvivesSchedulerFailure(t *testing.T) {
	f := newFixture(t)
	f.sched.err = errors.New("queue unavailable")

	u, err := f.svc.RecordUpload(context.Background(), upload.File{Filename: "cv.pdf", Size: int64(len(pdf)), Content: bytes.NewReader(pdf)})
	require.NoError(t, err)
	assert.Contains(t, f.store.Uploads, u.ID)
}
