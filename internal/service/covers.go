package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// UploadCoverInput - загружаемый файл обложки.
type UploadCoverInput struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadCover валидирует файл и кладёт его в бакет под ключом
// covers/<unix-ms>-<uuid>.<ext>. Возвращает публичный URL.
func (s *Service) UploadCover(ctx context.Context, p *models.Principal, in UploadCoverInput) (string, error) {
	const op = "service/covers/UploadCover"

	if s.covers == nil {
		return "", fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if p == nil {
		return "", fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With("op", op, "user_id", p.ID)

	if in.Body == nil || in.Size <= 0 || in.Size > s.coverCfg.MaxSizeBytes {
		lg.Warn("invalid argument: cover size", "size", in.Size)

		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if !isAllowedContentType(s.coverCfg.AllowedContentTypes, in.ContentType) {
		lg.Warn("invalid argument: cover content type", "content_type", in.ContentType)

		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	key := fmt.Sprintf("covers/%d-%s.%s", s.now().UnixMilli(), uuid.NewString(), coverExt(in.ContentType, in.Filename))

	url, err := s.covers.PutCover(ctx, key, in.ContentType, in.Body, in.Size)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidArgument) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}

		lg.Error("storage error on PutCover", "err", err)

		return "", fmt.Errorf("%s: %w", op, ErrInternal)
	}

	s.Log(ctx, p, models.ActionFileUploaded, models.ResourceFile, key, map[string]any{
		"filename":   in.Filename,
		"size_bytes": in.Size,
	})

	return url, nil
}

// DeleteCover удаляет обложку по её публичному URL.
func (s *Service) DeleteCover(ctx context.Context, p *models.Principal, publicURL string) error {
	const op = "service/covers/DeleteCover"

	if s.covers == nil {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}

	if p == nil {
		return fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	lg := log.From(ctx).With("op", op, "user_id", p.ID)

	key, err := s.covers.KeyFromURL(publicURL)
	if err != nil {
		lg.Warn("invalid argument: cover url", "url", publicURL)

		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.covers.DeleteCover(ctx, key); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("cover not found", "key", key)

			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		lg.Error("storage error on DeleteCover", "key", key, "err", err)

		return fmt.Errorf("%s: %w", op, ErrInternal)
	}

	return nil
}

// coverExt - расширение по типу содержимого, иначе по имени файла.
func coverExt(contentType, filename string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	}

	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), "."); ext != "" {
		return ext
	}

	return "bin"
}

// isAllowedContentType проверяет, что тип содержимого входит в allow-list.
func isAllowedContentType(allow []string, contentType string) bool {
	for _, a := range allow {
		if strings.EqualFold(a, contentType) {
			return true
		}
	}

	return false
}
