package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

const jobColumns = `id, department, location, job_type, salary_min, salary_max, salary_currency, status, title, description, requirements, created, updated`

func (r *SQLiteRepo) CreateJobListing(ctx context.Context, j *models.JobListing) error {
	if j == nil {
		return fmt.Errorf("job listing is nil")
	}

	smin, smax, scur := salaryArgs(j.Salary)
	_, err := r.conn.Exec(ctx, `INSERT INTO job_listings (`+jobColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Department, j.Location, string(j.JobType), smin, smax, scur, string(j.Status),
		string(j.Title), string(j.Description), rawArg(j.Requirements), millis(j.CreatedAt), millis(j.UpdatedAt))
	return err
}

func (r *SQLiteRepo) GetJobListing(ctx context.Context, id string) (*models.JobListing, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_listings WHERE id = ?`, id)
	j, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return j, nil
}

func (r *SQLiteRepo) ListJobListings(ctx context.Context, f repository.ListFilter) ([]models.JobListing, error) {
	limit, offset := page(f)
	rows, err := r.conn.QueryRows(ctx, `SELECT `+jobColumns+` FROM job_listings WHERE (? = '' OR status = ?) ORDER BY created DESC, id LIMIT ? OFFSET ?`,
		f.Status, f.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.JobListing
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// UpdateJobListing rewrites the editable content fields. Status is left alone;
// it only changes through UpdateJobListingStatus.
func (r *SQLiteRepo) UpdateJobListing(ctx context.Context, j *models.JobListing) error {
	if j == nil {
		return fmt.Errorf("job listing is nil")
	}

	smin, smax, scur := salaryArgs(j.Salary)
	res, err := r.conn.Exec(ctx, `UPDATE job_listings SET department = ?, location = ?, job_type = ?, salary_min = ?, salary_max = ?, salary_currency = ?, title = ?, description = ?, requirements = ?, updated = ? WHERE id = ?`,
		j.Department, j.Location, string(j.JobType), smin, smax, scur, string(j.Title), string(j.Description), rawArg(j.Requirements), millis(j.UpdatedAt), j.ID)
	if err != nil {
		return err
	}
	return affected(res)
}

func (r *SQLiteRepo) UpdateJobListingStatus(ctx context.Context, id string, from, to models.JobStatus, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE job_listings SET status = ?, updated = ? WHERE id = ? AND status = ?`, string(to), millis(at), id, string(from))
	if err != nil {
		return err
	}
	return casResult(res, func() (bool, error) { return r.exists(ctx, "job_listings", id) })
}

// DeleteJobListing removes a listing only when no application references it.
func (r *SQLiteRepo) DeleteJobListing(ctx context.Context, id string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM job_listings WHERE id = ? AND NOT EXISTS (SELECT 1 FROM applications WHERE job_id = ?)`, id, id)
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
	ok, err := r.exists(ctx, "job_listings", id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrNotFound
	}
	return repository.ErrHasApplications
}

func salaryArgs(s *models.SalaryRange) (any, any, any) {
	if s == nil {
		return nil, nil, nil
	}
	return s.Min, s.Max, s.Currency
}

func rawArg(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return string(m)
}

func scanJob(s scanner) (*models.JobListing, error) {
	var (
		j                  models.JobListing
		jobType, status    string
		smin, smax         sql.NullInt64
		scur, requirements sql.NullString
		title, description string
		created, updated   int64
	)
	if err := s.Scan(&j.ID, &j.Department, &j.Location, &jobType, &smin, &smax, &scur, &status,
		&title, &description, &requirements, &created, &updated); err != nil {
		return nil, err
	}
	j.JobType = models.JobType(jobType)
	j.Status = models.JobStatus(status)
	if smin.Valid || smax.Valid {
		j.Salary = &models.SalaryRange{Min: smin.Int64, Max: smax.Int64, Currency: str(scur)}
	}
	j.Title = json.RawMessage(title)
	j.Description = json.RawMessage(description)
	if requirements.Valid {
		j.Requirements = json.RawMessage(requirements.String)
	}
	j.CreatedAt = fromMillis(created)
	j.UpdatedAt = fromMillis(updated)
	return &j, nil
}
