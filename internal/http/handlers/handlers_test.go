package handlers

// Тесты HTTP-хендлеров blog-admin.
//
//  Проверяем:
//  - контракт входа/выхода: статусы, плоский {"error": ...}, пару cookie;
//  - ограничение попыток входа и fail-open при недоступном Redis;
//  - CRUD постов, обложки, журнал и дашборд поверх сервисного слоя с моками хранилищ.
//
// Подготовка окружения:
//   go test ./internal/http/handlers -v -race -count=1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/metrics"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/service"
	"github.com/pribylovaa/go-blog-admin/internal/session"
	"github.com/pribylovaa/go-blog-admin/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	idp      *mocks.MockClient
	posts    *mocks.MockPosts
	profiles *mocks.MockProfiles
	activity *mocks.MockActivity
	covers   *mocks.MockCovers
	reg      *prometheus.Registry
	h        *Handlers
}

func newTestEnv(t *testing.T, opts ...Option) testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)

	env := testEnv{
		idp:      mocks.NewMockClient(ctrl),
		posts:    mocks.NewMockPosts(ctrl),
		profiles: mocks.NewMockProfiles(ctrl),
		activity: mocks.NewMockActivity(ctrl),
		covers:   mocks.NewMockCovers(ctrl),
		reg:      prometheus.NewRegistry(),
	}

	svc := service.New(service.Deps{
		Posts:    env.posts,
		Profiles: env.profiles,
		Activity: env.activity,
		Covers:   env.covers,
	}, config.CoversConfig{
		MaxSizeBytes:        1 << 20,
		AllowedContentTypes: []string{"image/jpeg", "image/png"},
	}, service.WithClock(func() time.Time { return fixedNow }))

	base := []Option{
		WithMetrics(metrics.MustNew(env.reg)),
		WithClock(func() time.Time { return fixedNow }),
	}
	env.h = New(env.idp, svc, session.DefaultCookiePolicy(false), append(base, opts...)...)

	return env
}

func alice() *models.Principal {
	return &models.Principal{ID: "u-1", Email: "alice@example.com", Role: "authenticated"}
}

// asAlice - запрос, прошедший гард.
func asAlice(req *http.Request) *http.Request {
	return req.WithContext(session.WithPrincipal(req.Context(), alice()))
}

// withParam - chi URL-параметр без сборки роутера.
func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func jsonReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()

	var rd io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(raw)
		}
	}

	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type envelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func decodeFlat(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var body authError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func cookiesByName(rr *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rr.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

// counterValue - значение счётчика name{label=value} в реестре.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()

	mfs, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x?limit=10&bad=abc&neg=-1", nil)

	n, err := queryInt(req, "limit", 0)
	require.NoError(t, err)
	require.Equal(t, 10, n)

	n, err = queryInt(req, "missing", 7)
	require.NoError(t, err)
	require.Equal(t, 7, n)

	_, err = queryInt(req, "bad", 0)
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	_, err = queryInt(req, "neg", 0)
	require.ErrorIs(t, err, service.ErrInvalidArgument)
}
