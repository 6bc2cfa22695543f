package service

// Тесты сервисного слоя blog-admin.
//
//  Проверяем:
//  - валидацию входов и маппинг ошибок storage -> service;
//  - построение slug и частичный апдейт постов;
//  - best-effort журнал активности (ошибки журнала не ломают операцию);
//  - устойчивость дашборда к частичным отказам хранилищ.
//
// Подготовка окружения:
//   go test ./internal/service -v -race -count=1
//
// Примечание: моки сгенерированы в пакете /mocks (MockPosts, MockProfiles, MockActivity, MockCovers).

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/mocks"
)

// fixedNow - фиксированное время для детерминированных проверок.
var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	posts    *mocks.MockPosts
	profiles *mocks.MockProfiles
	activity *mocks.MockActivity
	covers   *mocks.MockCovers
}

func newServiceWithMocks(t *testing.T) (*Service, testDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)

	d := testDeps{
		posts:    mocks.NewMockPosts(ctrl),
		profiles: mocks.NewMockProfiles(ctrl),
		activity: mocks.NewMockActivity(ctrl),
		covers:   mocks.NewMockCovers(ctrl),
	}

	s := New(Deps{
		Posts:    d.posts,
		Profiles: d.profiles,
		Activity: d.activity,
		Covers:   d.covers,
	}, config.CoversConfig{
		MaxSizeBytes:        1 << 20,
		AllowedContentTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
	}, WithClock(func() time.Time { return fixedNow }))

	return s, d
}

func principal() *models.Principal {
	return &models.Principal{ID: "u-1", Email: "alice@example.com", Role: "authenticated"}
}
