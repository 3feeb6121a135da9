package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/intake/pkg/models"
	"github.com/garnizeh/intake/pkg/repository"
)

func (r *SQLiteRepo) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	if m == nil {
		return fmt.Errorf("contact message is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO contact_messages (id, name, email, subject, message, created) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, millis(m.CreatedAt))
	return err
}

func (r *SQLiteRepo) GetContactMessage(ctx context.Context, id string) (*models.ContactMessage, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, name, email, subject, message, created FROM contact_messages WHERE id = ?`, id)
	m, err := scanContact(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *SQLiteRepo) ListContactMessages(ctx context.Context, f repository.ListFilter) ([]models.ContactMessage, error) {
	limit, offset := page(f)
	rows, err := r.conn.QueryRows(ctx, `SELECT id, name, email, subject, message, created FROM contact_messages ORDER BY created DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ContactMessage
	for rows.Next() {
		m, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanContact(s scanner) (*models.ContactMessage, error) {
	var (
		m       models.ContactMessage
		created int64
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &created); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(created)
	return &m, nil
}
