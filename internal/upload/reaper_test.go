package upload_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/garnizeh/intake/internal/jobs"
	"github.com/garnizeh/intake/internal/upload"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
	"github.com/garnizeh/intake/pkg/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUpload(t *testing.T, repo *mock.Store, store *fakeStore, id string) models.Upload {
	t.Helper()
	key := "k-" + id + ".pdf"
	store.stored[key] = pdfBytes
	u := models.Upload{ID: id, Filename: id + ".pdf", Object: key, URL: "http://files.test/" + key, MimeType: "application/pdf"}
	require.NoError(t, repo.CreateUpload(context.Background(), &u))
	return u
}

func TestReapDeletesOrphans(t *testing.T) {
	repo, store := mock.New(), newFakeStore()
	u := seedUpload(t, repo, store, "u1")

	deleted, err := upload.NewReaper(repo, store, nil).Reap(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{u.Object}, store.deleted)
	assert.NotContains(t, repo.Uploads, u.ID)
}

func TestReapKeepsReferencedUploads(t *testing.T) {
	ctx := context.Background()
	repo, store := mock.New(), newFakeStore()
	quoted := seedUpload(t, repo, store, "q")
	cv := seedUpload(t, repo, store, "cv")
	require.NoError(t, repo.CreateQuote(ctx, &models.QuoteRequest{ID: "q1", FileURL: quoted.URL}))
	repo.Jobs["j1"] = models.JobListing{ID: "j1", Status: models.JobPublished}
	require.NoError(t, repo.CreateApplication(ctx, &models.Application{ID: "a1", JobID: "j1", CVURL: cv.URL}))

	r := upload.NewReaper(repo, store, nil)
	for _, id := range []string{quoted.ID, cv.ID} {
		deleted, err := r.Reap(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted)
	}
	assert.Empty(t, store.deleted)
	assert.Len(t, repo.Uploads, 2)
}

func TestReapKeepsClaimedUploads(t *testing.T) {
	ctx := context.Background()
	repo, store := mock.New(), newFakeStore()
	u := seedUpload(t, repo, store, "claimed")
	require.NoError(t, repo.ClaimUpload(ctx, u.URL, time.Now()))

	deleted, err := upload.NewReaper(repo, store, nil).Reap(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, store.deleted)
	assert.Contains(t, repo.Uploads, u.ID)
}

func TestClaimAfterReapFails(t *testing.T) {
	ctx := context.Background()
	repo, store := mock.New(), newFakeStore()
	u := seedUpload(t, repo, store, "late")

	deleted, err := upload.NewReaper(repo, store, nil).Reap(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	assert.ErrorIs(t, repo.ClaimUpload(ctx, u.URL, time.Now()), repository.ErrNotFound)
}

func TestReapMissingRecord(t *testing.T) {
	deleted, err := upload.NewReaper(mock.New(), newFakeStore(), nil).Reap(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestReaperHandler(t *testing.T) {
	repo, store := mock.New(), newFakeStore()
	u := seedUpload(t, repo, store, "u2")

	payload, err := json.Marshal(upload.ReapPayload{UploadID: u.ID})
	require.NoError(t, err)
	h := upload.NewReaper(repo, store, nil).Handler()

	require.NoError(t, h(context.Background(), &jobs.Job{Type: upload.ReapJobType, Payload: payload}))
	assert.NotContains(t, repo.Uploads, u.ID)

	assert.Error(t, h(context.Background(), &jobs.Job{Type: upload.ReapJobType, Payload: json.RawMessage(`[`)}))
}
