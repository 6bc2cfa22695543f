package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// DashboardStats - счётчики дашборда.
type DashboardStats struct {
	Posts int
	Users int
}

// Dashboard - сводка для главной страницы админки.
type Dashboard struct {
	Profile        *models.AdminProfile
	Stats          DashboardStats
	RecentActivity []models.ActivityEntry
}

// Dashboard собирает сводку. Частичные отказы хранилищ не ломают ответ:
// профиль может отсутствовать, счётчики при ошибке равны 0, журнал - пуст.
func (s *Service) Dashboard(ctx context.Context, p *models.Principal) (*Dashboard, error) {
	const op = "service/dashboard/Dashboard"

	if p == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With("op", op, "user_id", p.ID)
	out := &Dashboard{RecentActivity: []models.ActivityEntry{}}

	if s.profiles != nil {
		profile, err := s.profiles.ProfileByID(ctx, p.ID)
		switch {
		case err == nil:
			out.Profile = profile
		case errors.Is(err, storage.ErrNotFound):
		default:
			lg.Warn("dashboard_profile_failed", "err", err)
		}

		if n, err := s.profiles.CountProfiles(ctx); err != nil {
			lg.Warn("dashboard_count_users_failed", "err", err)
		} else {
			out.Stats.Users = n
		}
	}

	if s.posts != nil {
		if n, err := s.posts.CountPosts(ctx); err != nil {
			lg.Warn("dashboard_count_posts_failed", "err", err)
		} else {
			out.Stats.Posts = n
		}
	}

	if s.activity != nil {
		items, err := s.RecentActivity(ctx, p)
		if err != nil {
			lg.Warn("dashboard_recent_activity_failed", "err", err)
		} else {
			out.RecentActivity = items
		}
	}

	return out, nil
}
