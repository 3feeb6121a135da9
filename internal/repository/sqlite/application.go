package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

const applicationColumns = `id, job_id, full_name, email, phone, cv_url, message, notes, status, created, updated`

func (r *SQLiteRepo) CreateApplication(ctx context.Context, a *models.Application) error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.JobID, a.FullName, a.Email, a.Phone, a.CVURL, nullable(a.Message), nullable(a.Notes), string(a.Status),
		millis(a.CreatedAt), millis(a.UpdatedAt))
	return err
}

// ApplyToListing inserts a only if its listing is PUBLISHED at the moment of
// the write, so a listing archived concurrently cannot gain applications.
func (r *SQLiteRepo) ApplyToListing(ctx context.Context, a *models.Application) error {
	if a == nil {
		return fmt.Errorf("application is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO applications (`+applicationColumns+`)
		SELECT ?, id, ?, ?, ?, ?, ?, ?, ?, ?, ? FROM job_listings WHERE id = ? AND status = ?`,
		a.ID, a.FullName, a.Email, a.Phone, a.CVURL, nullable(a.Message), nullable(a.Notes), string(a.Status),
		millis(a.CreatedAt), millis(a.UpdatedAt), a.JobID, string(models.JobPublished))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	ok, err := r.exists(ctx, "job_listings", a.JobID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return repository.ErrListingNotOpen
}

func (r *SQLiteRepo) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = ?`, id)
	a, err := scanApplication(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *SQLiteRepo) ListApplications(ctx context.Context, f repository.ListFilter) ([]models.Application, error) {
	limit, offset := page(f)
	rows, err := r.conn.QueryRows(ctx, `SELECT `+applicationColumns+` FROM applications WHERE (? = '' OR status = ?) AND (? = '' OR job_id = ?) ORDER BY created DESC, id LIMIT ? OFFSET ?`,
		f.Status, f.Status, f.JobID, f.JobID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateApplicationStatus(ctx context.Context, id string, from, to models.ApplicationStatus, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE applications SET status = ?, updated = ? WHERE id = ? AND status = ?`, string(to), millis(at), id, string(from))
	if err != nil {
		return err
	}
	return casResult(res, func() (bool, error) { return r.exists(ctx, "applications", id) })
}

func (r *SQLiteRepo) UpdateApplicationNotes(ctx context.Context, id, notes string, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE applications SET notes = ?, updated = ? WHERE id = ?`, nullable(notes), millis(at), id)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanApplication(s scanner) (*models.Application, error) {
	var (
		a                models.Application
		message, notes   sql.NullString
		status           string
		created, updated int64
	)
	if err := s.Scan(&a.ID, &a.JobID, &a.FullName, &a.Email, &a.Phone, &a.CVURL, &message, &notes, &status, &created, &updated); err != nil {
		return nil, err
	}
	a.Message = str(message)
	a.Notes = str(notes)
	a.Status = models.ApplicationStatus(status)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(updated)
	return &a, nil
}
