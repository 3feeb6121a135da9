package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/garnizeh/intake/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return fmt.Errorf("user is nil")
	}

	_, err := r.conn.Exec(ctx, `INSERT INTO users (id, name, email, password_hash, updated) VALUES (?, ?, ?, ?, ?)`, u.ID, u.Name, u.Email, u.PasswordHash, millis(u.UpdatedAt))
	return err
}

func (r *SQLiteRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, password_hash, updated FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT id, name, email, password_hash, updated FROM users WHERE email = ?`, email)
}

func (r *SQLiteRepo) getUser(ctx context.Context, q string, arg string) (*models.User, error) {
	row := r.conn.QueryRow(ctx, q, arg)
	var (
		u       models.User
		updated int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}
	u.UpdatedAt = fromMillis(updated)

	return &u, nil
}
