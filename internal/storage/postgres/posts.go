package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// postColumns - единый список колонок posts для SELECT/RETURNING.
const postColumns = `
id, title, slug, excerpt, content, cover_image, published, published_at, author_id, created_at, updated_at
`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post

	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Excerpt,
		&p.Content,
		&p.CoverImage,
		&p.Published,
		&p.PublishedAt,
		&p.AuthorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

// CreatePost вставляет пост. Ошибки: storage.ErrAlreadyExists при занятом slug.
func (s *Storage) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	const op = "storage/postgres/posts/CreatePost"

	q := `
	INSERT INTO posts (id, title, slug, excerpt, content, cover_image, published, published_at, author_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING
	` + postColumns

	row := s.db.QueryRow(ctx, q,
		post.ID,
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		post.CoverImage,
		post.Published,
		post.PublishedAt,
		post.AuthorID,
	)

	result, err := scanPost(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// PostByID возвращает пост по id.
func (s *Storage) PostByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage/postgres/posts/PostByID"

	row := s.db.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)

	result, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// PostBySlug возвращает пост по slug; при publishedOnly черновики не видны.
func (s *Storage) PostBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Post, error) {
	const op = "storage/postgres/posts/PostBySlug"

	q := `SELECT ` + postColumns + ` FROM posts WHERE slug = $1`
	if publishedOnly {
		q += ` AND published`
	}

	result, err := scanPost(s.db.QueryRow(ctx, q, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// SlugTaken проверяет занятость slug без учёта поста exclude (uuid.Nil - без исключения).
func (s *Storage) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	const op = "storage/postgres/posts/SlugTaken"

	var taken bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)`,
		slug, exclude,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return taken, nil
}

// UpdatePost выполняет частичный апдейт и всегда сдвигает updated_at = now().
// Ошибки: storage.ErrNotFound, storage.ErrAlreadyExists при занятом slug.
func (s *Storage) UpdatePost(ctx context.Context, id uuid.UUID, update storage.PostUpdate) (*models.Post, error) {
	const op = "storage/postgres/posts/UpdatePost"

	sets := []string{"updated_at = now()"}
	args := make([]any, 0, 8)

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Slug != nil {
		add("slug", *update.Slug)
	}
	if update.Excerpt != nil {
		add("excerpt", *update.Excerpt)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.CoverImage != nil {
		add("cover_image", *update.CoverImage)
	}
	if update.Published != nil {
		add("published", *update.Published)
	}
	if update.PublishedAt != nil {
		add("published_at", *update.PublishedAt)
	}

	args = append(args, id)

	q := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), postColumns)

	result, err := scanPost(s.db.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// DeletePost удаляет пост и возвращает удалённую запись.
func (s *Storage) DeletePost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	const op = "storage/postgres/posts/DeletePost"

	result, err := scanPost(s.db.QueryRow(ctx, `DELETE FROM posts WHERE id = $1 RETURNING `+postColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// ListPosts возвращает посты: админка - по updated_at, публичный список - по published_at.
func (s *Storage) ListPosts(ctx context.Context, params storage.ListPostsParams) ([]models.Post, error) {
	const op = "storage/postgres/posts/ListPosts"

	q := `SELECT ` + postColumns + ` FROM posts`
	if params.PublishedOnly {
		q += ` WHERE published ORDER BY published_at DESC NULLS LAST, id`
	} else {
		q += ` ORDER BY updated_at DESC, id`
	}
	q += ` LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, q, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, params.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

// CountPosts возвращает общее число постов.
func (s *Storage) CountPosts(ctx context.Context) (int, error) {
	const op = "storage/postgres/posts/CountPosts"

	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
