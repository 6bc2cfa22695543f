package service

import (
	"context"
	"errors"

	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// RecordLogin фиксирует успешный вход: last_login_at профиля и запись user_login.
// Ошибки не влияют на вход и только логируются.
func (s *Service) RecordLogin(ctx context.Context, p *models.Principal) {
	if p == nil {
		return
	}

	if s.profiles != nil {
		err := s.profiles.TouchLastLogin(ctx, p.ID, s.now().UTC())
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrNotFound):
			log.From(ctx).Debug("admin profile not found", "user_id", p.ID)
		default:
			log.From(ctx).Warn("touch_last_login_failed", "user_id", p.ID, "err", err)
		}
	}

	s.Log(ctx, p, models.ActionUserLogin, models.ResourceAuth, "", map[string]any{
		"event": "login_success",
	})
}

// RecordLogout фиксирует выход пользователя.
func (s *Service) RecordLogout(ctx context.Context, p *models.Principal) {
	s.Log(ctx, p, models.ActionUserLogout, models.ResourceAuth, "", map[string]any{
		"event": "logout",
	})
}
