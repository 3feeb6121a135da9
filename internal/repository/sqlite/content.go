package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/garnizeh/intake/pkg/models"
)

func (r *SQLiteRepo) ListSettings(ctx context.Context) ([]models.SiteSetting, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT key, value, updated FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SiteSetting
	for rows.Next() {
		var (
			s       models.SiteSetting
			value   string
			updated int64
		)
		if err := rows.Scan(&s.Key, &value, &updated); err != nil {
			return nil, err
		}
		s.Value = json.RawMessage(value)
		s.UpdatedAt = fromMillis(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) PutSetting(ctx context.Context, s *models.SiteSetting) error {
	if s == nil {
		return fmt.Errorf("setting is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO site_settings (key, value, updated) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated=excluded.updated`,
		s.Key, string(s.Value), millis(s.UpdatedAt))
	return err
}

const serviceColumns = `id, slug, title, summary, body, position, published, updated`

func (r *SQLiteRepo) CreateService(ctx context.Context, s *models.Service) error {
	if s == nil {
		return fmt.Errorf("service is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Slug, s.Title, nullable(s.Summary), nullable(s.Body), s.Position, s.Published, millis(s.UpdatedAt))
	return unique(err)
}

func (r *SQLiteRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	s, err := scanService(r.conn.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepo) ListServices(ctx context.Context, publishedOnly bool) ([]models.Service, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+serviceColumns+` FROM services WHERE (? = 0 OR published = 1) ORDER BY position, title`, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateService(ctx context.Context, s *models.Service) error {
	if s == nil {
		return fmt.Errorf("service is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE services SET slug = ?, title = ?, summary = ?, body = ?, position = ?, published = ?, updated = ? WHERE id = ?`,
		s.Slug, s.Title, nullable(s.Summary), nullable(s.Body), s.Position, s.Published, millis(s.UpdatedAt), s.ID)
	if err != nil {
		return unique(err)
	}
	return affected(res)
}

func (r *SQLiteRepo) DeleteService(ctx context.Context, id string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanService(s scanner) (*models.Service, error) {
	var (
		svc           models.Service
		summary, body sql.NullString
		updated       int64
	)
	if err := s.Scan(&svc.ID, &svc.Slug, &svc.Title, &summary, &body, &svc.Position, &svc.Published, &updated); err != nil {
		return nil, err
	}
	svc.Summary = str(summary)
	svc.Body = str(body)
	svc.UpdatedAt = fromMillis(updated)
	return &svc, nil
}

const projectColumns = `id, slug, title, summary, image_url, service_id, published, updated`

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, nullable(p.Summary), nullable(p.ImageURL), nullable(p.ServiceID), p.Published, millis(p.UpdatedAt))
	return unique(err)
}

func (r *SQLiteRepo) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(r.conn.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepo) ListProjects(ctx context.Context, publishedOnly bool) ([]models.Project, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT `+projectColumns+` FROM projects WHERE (? = 0 OR published = 1) ORDER BY updated DESC, id`, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	res, err := r.conn.Exec(ctx, `UPDATE projects SET slug = ?, title = ?, summary = ?, image_url = ?, service_id = ?, published = ?, updated = ? WHERE id = ?`,
		p.Slug, p.Title, nullable(p.Summary), nullable(p.ImageURL), nullable(p.ServiceID), p.Published, millis(p.UpdatedAt), p.ID)
	if err != nil {
		return unique(err)
	}
	return affected(res)
}

func (r *SQLiteRepo) DeleteProject(ctx context.Context, id string) error {
	res, err := r.conn.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func scanProject(s scanner) (*models.Project, error) {
	var (
		p                         models.Project
		summary, image, serviceID sql.NullString
		updated                   int64
	)
	if err := s.Scan(&p.ID, &p.Slug, &p.Title, &summary, &image, &serviceID, &p.Published, &updated); err != nil {
		return nil, err
	}
	p.Summary = str(summary)
	p.ImageURL = str(image)
	p.ServiceID = str(serviceID)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}
