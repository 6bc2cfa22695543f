// storage содержит контракты слоя хранилищ blog-admin.
//
// Posts и Profiles - PostgreSQL (postgres), Activity - MongoDB (mongo),
// Covers - S3/MinIO (minio). Сервисный слой зависит только от этих интерфейсов.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-blog-admin/internal/models"
)

//go:generate mockgen -destination=../../mocks/storage_mock.go -package=mocks github.com/pribylovaa/go-blog-admin/internal/storage Posts,Profiles,Activity,Covers

var (
	// ErrNotFound - запись/объект не найдены.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists - нарушение уникальности (например, slug поста).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidArgument - запрос нарушает ограничения хранилища.
	ErrInvalidArgument = errors.New("invalid argument")
)

// PostUpdate - частичный апдейт поста: обновляются только непустые указатели.
// PublishedAt выставляется сервисом при первой публикации.
type PostUpdate struct {
	Title       *string
	Slug        *string
	Excerpt     *string
	Content     *string
	CoverImage  *string
	Published   *bool
	PublishedAt *time.Time
}

// ListPostsParams - параметры выборки постов.
type ListPostsParams struct {
	Limit         int
	Offset        int
	PublishedOnly bool
}

// Posts - репозиторий постов.
type Posts interface {
	// CreatePost вставляет пост; ErrAlreadyExists при занятом slug.
	CreatePost(ctx context.Context, post *models.Post) (*models.Post, error)
	// PostByID возвращает пост по id; ErrNotFound, если его нет.
	PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// PostBySlug возвращает пост по slug; publishedOnly скрывает черновики.
	PostBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error)
	// SlugTaken сообщает, занят ли slug другим постом (exclude - id, который не учитывается).
	SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error)
	// UpdatePost применяет частичный апдейт и сдвигает updated_at.
	UpdatePost(ctx context.Context, id uuid.UUID, update PostUpdate) (*models.Post, error)
	// DeletePost удаляет пост и возвращает удалённую запись.
	DeletePost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// ListPosts - посты от новых к старым.
	ListPosts(ctx context.Context, params ListPostsParams) ([]models.Post, error)
	// CountPosts - общее число постов.
	CountPosts(ctx context.Context) (int, error)
}

// Profiles - профили администраторов.
type Profiles interface {
	ProfileByID(ctx context.Context, id string) (*models.AdminProfile, error)
	// TouchLastLogin выставляет last_login_at; ErrNotFound, если профиля нет.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	CountProfiles(ctx context.Context) (int, error)
}

// Activity - журнал действий.
type Activity interface {
	InsertActivity(ctx context.Context, entry *models.ActivityEntry) (*models.ActivityEntry, error)
	// ActivityByUser - последние записи пользователя, от новых к старым.
	ActivityByUser(ctx context.Context, userID string, limit int) ([]models.ActivityEntry, error)
}

// Covers - объекты обложек в бакете.
type Covers interface {
	// PutCover загружает объект и возвращает его публичный URL.
	PutCover(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// DeleteCover удаляет объект; ErrNotFound, если его нет.
	DeleteCover(ctx context.Context, key string) error
	// KeyFromURL восстанавливает ключ объекта из публичного URL;
	// ErrInvalidArgument, если URL не указывает на бакет обложек.
	KeyFromURL(publicURL string) (string, error)
}
