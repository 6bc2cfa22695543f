package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

var actionLabels = map[string]string{
	models.ActionUserLogin:       "Logged in",
	models.ActionUserLogout:      "Logged out",
	models.ActionPostCreated:     "Created post",
	models.ActionPostUpdated:     "Updated post",
	models.ActionPostDeleted:     "Deleted post",
	models.ActionSettingsUpdated: "Updated settings",
	models.ActionFileUploaded:    "Uploaded file",
}

// FormatAction возвращает подпись действия; неизвестное действие возвращается как есть.
func FormatAction(action string) string {
	if label, ok := actionLabels[action]; ok {
		return label
	}

	return action
}

// FormatTimeAgo - относительное время для журнала.
func FormatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	default:
		return t.Format("2006-01-02")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}

	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Log пишет запись в журнал активности best-effort: ошибки только логируются.
// В metadata всегда добавляется timestamp (RFC 3339, UTC).
func (s *Service) Log(ctx context.Context, p *models.Principal, action, resourceType, resourceID string, metadata map[string]any) {
	if s.activity == nil || p == nil {
		return
	}

	now := s.now().UTC()

	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if _, ok := meta["timestamp"]; !ok {
		meta["timestamp"] = now.Format(time.RFC3339)
	}

	_, err := s.activity.InsertActivity(ctx, &models.ActivityEntry{
		UserID:       p.ID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     meta,
		CreatedAt:    now,
	})
	if err != nil {
		log.From(ctx).Warn("activity_log_failed",
			"action", action,
			"user_id", p.ID,
			"err", err,
		)
	}
}

// RecentActivity - последние действия пользователя для дашборда.
func (s *Service) RecentActivity(ctx context.Context, p *models.Principal) ([]models.ActivityEntry, error) {
	return s.activityByUser(ctx, "service/activity/RecentActivity", p, RecentActivityLimit)
}

// ListActivity - журнал пользователя; limit приводится к [1, MaxActivityLimit], по умолчанию 50.
func (s *Service) ListActivity(ctx context.Context, p *models.Principal, limit int) ([]models.ActivityEntry, error) {
	return s.activityByUser(ctx, "service/activity/ListActivity", p,
		clampLimit(limit, DefaultActivityLimit, MaxActivityLimit))
}

func (s *Service) activityByUser(ctx context.Context, op string, p *models.Principal, limit int) ([]models.ActivityEntry, error) {
	if s.activity == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if p == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	items, err := s.activity.ActivityByUser(ctx, p.ID, limit)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		log.From(ctx).Error("storage error on ActivityByUser", "op", op, "user_id", p.ID, "err", err)

		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return items, nil
}
