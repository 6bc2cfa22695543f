package session

import (
	"context"

	"github.com/pribylovaa/go-blog-admin/internal/models"
)

type principalKey struct{}

// WithPrincipal кладёт аутентифицированного пользователя в контекст запроса.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom достаёт пользователя, положенного гардом.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*models.Principal)
	return p, ok && p != nil
}
