package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// ProfileByID возвращает профиль администратора.
func (s *Storage) ProfileByID(ctx context.Context, id string) (*models.AdminProfile, error) {
	const op = "storage/postgres/profiles/ProfileByID"

	var p models.AdminProfile
	err := s.db.QueryRow(ctx,
		`SELECT id, display_name, role, last_login_at, created_at FROM admin_profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.DisplayName, &p.Role, &p.LastLoginAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

// TouchLastLogin выставляет last_login_at.
func (s *Storage) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const op = "storage/postgres/profiles/TouchLastLogin"

	tag, err := s.db.Exec(ctx, `UPDATE admin_profiles SET last_login_at = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// CountProfiles - число администраторов.
func (s *Storage) CountProfiles(ctx context.Context) (int, error) {
	const op = "storage/postgres/profiles/CountProfiles"

	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM admin_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
