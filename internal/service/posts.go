package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

var (
	slugStrip  = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces = regexp.MustCompile(`\s+`)
	slugDashes = regexp.MustCompile(`-+`)
)

// GenerateSlug строит slug из заголовка: нижний регистр, только буквы/цифры/_/-,
// пробелы и повторные дефисы схлопываются в один дефис, края обрезаются.
func GenerateSlug(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}

// Входные структуры сервисного слоя.
type CreatePostInput struct {
	Title      string
	Slug       string
	Excerpt    string
	Content    string
	CoverImage string
	Published  bool
}

type UpdatePostInput struct {
	ID         uuid.UUID
	Title      *string
	Slug       *string
	Excerpt    *string
	Content    *string
	CoverImage *string
	Published  *bool
}

// CreatePost создаёт пост от имени principal.
//
// Валидация:
//   - principal обязателен (ErrUnauthenticated);
//   - заголовок не пустой после TrimSpace;
//   - slug - переданный либо построенный из заголовка, не пустой и свободный (ErrSlugTaken).
//
// При публикации выставляется published_at. Запись в журнал - best-effort.
func (s *Service) CreatePost(ctx context.Context, p *models.Principal, in CreatePostInput) (*models.Post, error) {
	const op = "service/posts/CreatePost"

	if s.posts == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if p == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With("op", op, "user_id", p.ID)

	title := strings.TrimSpace(in.Title)
	if title == "" {
		lg.Warn("invalid argument: empty title")

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	slug := GenerateSlug(in.Slug)
	if slug == "" {
		slug = GenerateSlug(title)
	}

	if slug == "" {
		lg.Warn("invalid argument: empty slug", "title", title)

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	taken, err := s.posts.SlugTaken(ctx, slug, uuid.Nil)
	if err != nil {
		lg.Error("storage error on SlugTaken", "err", err)

		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	if taken {
		lg.Warn("slug already exists", "slug", slug)

		return nil, fmt.Errorf("%s: %w", op, ErrSlugTaken)
	}

	post := &models.Post{
		ID:         uuid.New(),
		Title:      title,
		Slug:       slug,
		Excerpt:    strings.TrimSpace(in.Excerpt),
		Content:    in.Content,
		CoverImage: strings.TrimSpace(in.CoverImage),
		Published:  in.Published,
		AuthorID:   p.ID,
	}

	if in.Published {
		at := s.now().UTC()
		post.PublishedAt = &at
	}

	result, err := s.posts.CreatePost(ctx, post)
	if err != nil {
		return nil, mapPostErr(lg, op, err)
	}

	s.Log(ctx, p, models.ActionPostCreated, models.ResourcePost, result.ID.String(), map[string]any{
		"title": result.Title,
	})

	return result, nil
}

// UpdatePost выполняет частичное обновление поста.
//
// Правила:
//   - обновляются только переданные поля; заголовок и slug не могут стать пустыми;
//   - slug проверяется на уникальность без учёта самого поста;
//   - published_at выставляется при первой публикации и далее не меняется.
func (s *Service) UpdatePost(ctx context.Context, p *models.Principal, in UpdatePostInput) (*models.Post, error) {
	const op = "service/posts/UpdatePost"

	if s.posts == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if p == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With("op", op, "user_id", p.ID, "post_id", in.ID.String())

	if in.ID == uuid.Nil {
		lg.Warn("invalid argument: empty post id")

		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	existing, err := s.posts.PostByID(ctx, in.ID)
	if err != nil {
		return nil, mapPostErr(lg, op, err)
	}

	upd := storage.PostUpdate{
		Excerpt:    trimmed(in.Excerpt),
		Content:    in.Content,
		CoverImage: trimmed(in.CoverImage),
		Published:  in.Published,
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			lg.Warn("invalid argument: empty title")

			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		upd.Title = &title
	}

	if in.Slug != nil {
		slug := GenerateSlug(*in.Slug)
		if slug == "" {
			lg.Warn("invalid argument: empty slug")

			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		if slug != existing.Slug {
			taken, err := s.posts.SlugTaken(ctx, slug, in.ID)
			if err != nil {
				lg.Error("storage error on SlugTaken", "err", err)

				return nil, fmt.Errorf("%s: %w", op, ErrInternal)
			}

			if taken {
				lg.Warn("slug already exists", "slug", slug)

				return nil, fmt.Errorf("%s: %w", op, ErrSlugTaken)
			}
		}
		upd.Slug = &slug
	}

	if in.Published != nil && *in.Published && existing.PublishedAt == nil {
		at := s.now().UTC()
		upd.PublishedAt = &at
	}

	result, err := s.posts.UpdatePost(ctx, in.ID, upd)
	if err != nil {
		return nil, mapPostErr(lg, op, err)
	}

	s.Log(ctx, p, models.ActionPostUpdated, models.ResourcePost, result.ID.String(), map[string]any{
		"title": result.Title,
	})

	return result, nil
}

// PostByID возвращает пост (включая черновики).
func (s *Service) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "service/posts/PostByID"

	if s.posts == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	lg := log.From(ctx).With("op", op, "post_id", id.String())

	if id == uuid.Nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.posts.PostByID(ctx, id)
	if err != nil {
		return nil, mapPostErr(lg, op, err)
	}

	return result, nil
}

// ListPosts - все посты для админки, новые изменения первыми.
func (s *Service) ListPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listPosts(ctx, "service/posts/ListPosts", limit, offset, false)
}

// PublishedPosts - опубликованные посты для публичной части.
func (s *Service) PublishedPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listPosts(ctx, "service/posts/PublishedPosts", limit, offset, true)
}

func (s *Service) listPosts(ctx context.Context, op string, limit, offset int, publishedOnly bool) ([]models.Post, error) {
	if s.posts == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if offset < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	result, err := s.posts.ListPosts(ctx, storage.ListPostsParams{
		Limit:         clampLimit(limit, DefaultPostsLimit, MaxPostsLimit),
		Offset:        offset,
		PublishedOnly: publishedOnly,
	})
	if err != nil {
		log.From(ctx).Error("storage error on ListPosts", "op", op, "err", err)

		return nil, fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return result, nil
}

// PublishedPostBySlug возвращает опубликованный пост; черновик даёт ErrNotFound.
func (s *Service) PublishedPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	const op = "service/posts/PublishedPostBySlug"

	if s.posts == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	lg := log.From(ctx).With("op", op, "slug", slug)

	result, err := s.posts.PostBySlug(ctx, slug, true)
	if err != nil {
		return nil, mapPostErr(lg, op, err)
	}

	return result, nil
}

// DeletePost удаляет пост.
func (s *Service) DeletePost(ctx context.Context, p *models.Principal, id uuid.UUID) error {
	const op = "service/posts/DeletePost"

	if s.posts == nil {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if p == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With("op", op, "user_id", p.ID, "post_id", id.String())

	if id == uuid.Nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	deleted, err := s.posts.DeletePost(ctx, id)
	if err != nil {
		return mapPostErr(lg, op, err)
	}

	s.Log(ctx, p, models.ActionPostDeleted, models.ResourcePost, id.String(), map[string]any{
		"title": deleted.Title,
	})

	return nil
}

// mapPostErr маппит ошибки storage в ошибки сервиса.
func mapPostErr(lg *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		lg.Warn("post not found")

		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, storage.ErrAlreadyExists):
		lg.Warn("slug already exists")

		return fmt.Errorf("%s: %w", op, ErrSlugTaken)
	default:
		lg.Error("storage error", "err", err)

		return fmt.Errorf("%s: %w", op, ErrInternal)
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	return &v
}
