package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

const quoteColumns = `id, first_name, last_name, email, company, phone, service_type, urgency, description, file_url, status, created, updated`

func (r *SQLiteRepo) CreateQuote(ctx context.Context, q *models.QuoteRequest) error {
	if q == nil {
		return fmt.Errorf("quote request is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO quote_requests (`+quoteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.FirstName, q.LastName, q.Email, nullable(q.Company), nullable(q.Phone), q.ServiceType, q.Urgency,
		q.Description, nullable(q.FileURL), string(q.Status), millis(q.CreatedAt), millis(q.UpdatedAt))
	return err
}

func (r *SQLiteRepo) GetQuote(ctx context.Context, id string) (*models.QuoteRequest, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = ?`, id)
	q, err := scanQuote(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return q, nil
}

func (r *SQLiteRepo) ListQuotes(ctx context.Context, f repository.ListFilter) ([]models.QuoteRequest, error) {
	limit, offset := page(f)
	rows, err := r.conn.QueryRows(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE (? = '' OR status = ?) ORDER BY created DESC, id LIMIT ? OFFSET ?`,
		f.Status, f.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QuoteRequest
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateQuoteStatus(ctx context.Context, id string, from, to models.QuoteStatus, at time.Time) error {
	res, err := r.conn.Exec(ctx, `UPDATE quote_requests SET status = ?, updated = ? WHERE id = ? AND status = ?`, string(to), millis(at), id, string(from))
	if err != nil {
		return err
	}
	return casResult(res, func() (bool, error) { return r.exists(ctx, "quote_requests", id) })
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(s scanner) (*models.QuoteRequest, error) {
	var (
		q                       models.QuoteRequest
		company, phone, fileURL sql.NullString
		status                  string
		created, updated        int64
	)
	if err := s.Scan(&q.ID, &q.FirstName, &q.LastName, &q.Email, &company, &phone, &q.ServiceType, &q.Urgency,
		&q.Description, &fileURL, &status, &created, &updated); err != nil {
		return nil, err
	}
	q.Company = str(company)
	q.Phone = str(phone)
	q.FileURL = str(fileURL)
	q.Status = models.QuoteStatus(status)
	q.CreatedAt = fromMillis(created)
	q.UpdatedAt = fromMillis(updated)
	return &q, nil
}

// exists reports whether table has a row with id. table is always a constant.
func (r *SQLiteRepo) exists(ctx context.Context, table, id string) (bool, error) {
	var n int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(1) FROM `+table+` WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
