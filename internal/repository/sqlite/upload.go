package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

func (r *SQLiteRepo) CreateUpload(ctx context.Context, u *models.Upload) error {
	if u == nil {
		return fmt.Errorf("upload is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO uploads (id, filename, object, url, mime_type, size, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Filename, u.Object, u.URL, u.MimeType, u.Size, millis(u.CreatedAt))
	return err
}

func (r *SQLiteRepo) GetUpload(ctx context.Context, id string) (*models.Upload, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, filename, object, url, mime_type, size, created, claimed FROM uploads WHERE id = ?`, id)
	var (
		u       models.Upload
		created int64
		claimed sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Filename, &u.Object, &u.URL, &u.MimeType, &u.Size, &created, &claimed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.CreatedAt = fromMillis(created)
	if claimed.Valid {
		at := fromMillis(claimed.Int64)
		u.ClaimedAt = &at
	}
	return &u, nil
}

// ClaimUpload keeps the first claim time when the upload is attached twice.
func (r *SQLiteRepo) ClaimUpload(ctx context.Context, url string, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE uploads SET claimed = COALESCE(claimed, ?) WHERE url = ?`, millis(at), url)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepo) DeleteUnclaimedUpload(ctx context.Context, id string) (bool, error) {
	res, err := r.conn.Exec(ctx, `DELETE FROM uploads WHERE id = ? AND claimed IS NULL
		AND NOT EXISTS (SELECT 1 FROM quote_requests WHERE file_url = uploads.url)
		AND NOT EXISTS (SELECT 1 FROM applications WHERE cv_url = uploads.url)`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
