package upload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garnizeh/intake/internal/jobs"
	"github.com/garnizeh/intake/internal/storage"
	"github.com/garnizeh/intake/pkg/repository"
)

// ReapJobType is the job that removes an upload nobody attached.
const ReapJobType = "upload.reap"

// ReapPayload is the body of an upload.reap job.
type ReapPayload struct {
	UploadID string `json:"uploadId"`
}

// Reaper deletes blobs whose upload record was never claimed by a quote
// request or application.
type Reaper struct {
	uploads repository.UploadRepo
	store   storage.BlobStore
	logger  *slog.Logger
}

func NewReaper(uploads repository.UploadRepo, store storage.BlobStore, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reaper{uploads: uploads, store: store, logger: logger}
}

// Reap removes the upload if it is still unclaimed. It reports whether the
// blob was deleted. Missing records are treated as already reaped.
//
// The record goes first, in one conditional delete, so a submission either
// claims the upload before it or finds it gone and asks for a new file.
func (r *Reaper) Reap(ctx context.Context, uploadID string) (bool, error) {
	u, err := r.uploads.GetUpload(ctx, uploadID)
	if err != nil {
		return false, fmt.Errorf("load upload: %w", err)
	}
	if u == nil {
		return false, nil
	}

	deleted, err := r.uploads.DeleteUnclaimedUpload(ctx, u.ID)
	if err != nil {
		return false, fmt.Errorf("delete upload record: %w", err)
	}
	if !deleted {
		return false, nil
	}

	if err := r.store.Delete(ctx, u.Object); err != nil {
		r.logger.Error("upload record removed but blob remains", slog.String("upload_id", u.ID), slog.String("key", u.Object), slog.Any("err", err))
		return false, fmt.Errorf("delete blob: %w", err)
	}
	r.logger.Info("orphaned upload reaped", slog.String("upload_id", u.ID), slog.String("filename", u.Filename))
	return true, nil
}

// Handler adapts Reap to the job queue.
func (r *Reaper) Handler() jobs.Handler {
	return func(ctx context.Context, j *jobs.Job) error {
		var p ReapPayload
		if err := j.Decode(&p); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		_, err := r.Reap(ctx, p.UploadID)
		return err
	}
}
