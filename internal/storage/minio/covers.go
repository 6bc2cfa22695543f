package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// PutCover загружает объект под ключом key и возвращает его публичный URL.
func (s *CoversStorage) PutCover(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	const op = "storage/minio/covers/PutCover"

	if strings.TrimSpace(key) == "" || size <= 0 {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, mclient.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.publicURL(key), nil
}

// DeleteCover удаляет объект. RemoveObject в S3 идемпотентен,
// поэтому наличие объекта проверяется через StatObject.
func (s *CoversStorage) DeleteCover(ctx context.Context, key string) error {
	const op = "storage/minio/covers/DeleteCover"

	if _, err := s.client.StatObject(ctx, s.bucket, key, mclient.StatObjectOptions{}); err != nil {
		errResp := mclient.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.StatusCode == 404 {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, mclient.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// KeyFromURL восстанавливает ключ из публичного URL:
// сначала по публичной базе, затем по сегменту "/<bucket>/".
func (s *CoversStorage) KeyFromURL(publicURL string) (string, error) {
	return keyFromURL(s.baseURL, s.bucket, publicURL)
}

func (s *CoversStorage) publicURL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

func keyFromURL(base, bucket, publicURL string) (string, error) {
	const op = "storage/minio/covers/KeyFromURL"

	u := strings.TrimSpace(publicURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}

	var key string
	if base != "" && strings.HasPrefix(u, base+"/") {
		key = strings.TrimPrefix(u, base+"/")
	} else if marker := "/" + bucket + "/"; strings.Contains(u, marker) {
		key = u[strings.Index(u, marker)+len(marker):]
	}

	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%s: %w", op, storage.ErrInvalidArgument)
	}

	return key, nil
}
