// minio предоставляет реализацию storage.Covers на базе MinIO/S3.
// minio.go - конструктор клиента: нормализует endpoint, настраивает Secure/creds
// и проверяет наличие бакета обложек.
// covers.go - загрузка/удаление объектов и разбор публичных URL.
package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
)

// CoversStorage - адаптер MinIO для обложек постов.
type CoversStorage struct {
	bucket  string
	baseURL string
	client  *mclient.Client
}

// New создает клиент MinIO и выполняет fail-fast-проверку бакета.
// Если PublicBaseURL не задан, публичные URL строятся как <endpoint>/<bucket>/<key>.
func New(ctx context.Context, cfg config.S3Config) (*CoversStorage, error) {
	const op = "storage/minio/New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	scheme := "http"

	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}
	if secure {
		scheme = "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.RootUser, cfg.RootPassword, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = scheme + "://" + endpoint + "/" + cfg.Bucket
	}

	return &CoversStorage{bucket: cfg.Bucket, baseURL: base, client: client}, nil
}

// Проверка выполнения контракта верхнего уровня.
var _ storage.Covers = (*CoversStorage)(nil)
