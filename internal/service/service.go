// service содержит бизнес-логику админки блога:
// - посты (создание/частичный апдейт/удаление, публичная выдача);
// - обложки постов в объектном хранилище;
// - журнал активности и сводка для дашборда;
// - аудит входа/выхода.
//
// Все хранилища опциональны: если хранилище не подключено,
// зависящие от него операции возвращают ErrUnavailable.
package service

import (
	"errors"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

var (
	// ErrInvalidArgument - некорректные входные данные.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound - сущность не найдена.
	ErrNotFound = errors.New("not found")
	// ErrSlugTaken - slug уже занят другим постом.
	ErrSlugTaken = errors.New("slug already exists")
	// ErrUnauthenticated - операция требует аутентифицированного пользователя.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnavailable - нужное хранилище не подключено.
	ErrUnavailable = errors.New("storage is not configured")
	// ErrInternal - внутренняя ошибка сервиса.
	ErrInternal = errors.New("internal")
)

// Пагинация списков.
const (
	DefaultPostsLimit    = 20
	MaxPostsLimit        = 100
	RecentActivityLimit  = 5
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// Service - бизнес-логика blog-admin.
type Service struct {
	posts    storage.Posts
	profiles storage.Profiles
	activity storage.Activity
	covers   storage.Covers
	coverCfg config.CoversConfig
	now      func() time.Time
}

// Deps - хранилища сервиса; любое поле может быть nil.
type Deps struct {
	Posts    storage.Posts
	Profiles storage.Profiles
	Activity storage.Activity
	Covers   storage.Covers
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New создает новый экземпляр Service.
func New(deps Deps, coverCfg config.CoversConfig, opts ...Option) *Service {
	s := &Service{
		posts:    deps.Posts,
		profiles: deps.Profiles,
		activity: deps.Activity,
		covers:   deps.Covers,
		coverCfg: coverCfg,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// clampLimit приводит limit к [1, max], 0 и отрицательные - к def.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}

	if limit > max {
		return max
	}

	return limit
}
