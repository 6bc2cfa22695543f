// gotrue - клиент REST API провайдера идентичности, совместимого с GoTrue
// (Supabase Auth): /auth/v1/user, /auth/v1/token, /auth/v1/logout.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/models"
)

const (
	userAgent = "blog-admin"
	// maxBody ограничивает чтение ответа провайдера.
	maxBody = 1 << 20

	codeEmailNotConfirmed = "email_not_confirmed"
)

var _ identity.Client = (*Client)(nil)

// Client - клиент GoTrue. Безопасен для конкурентного использования.
type Client struct {
	baseURL string
	http    *http.Client
}

// New создаёт клиента по секции identity конфигурации.
func New(cfg config.IdentityConfig) (*Client, error) {
	const op = "gotrue.New"

	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid identity url %q", op, cfg.URL)
	}

	return &Client{
		baseURL: u.String(),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: withMetadata(withLogging(http.DefaultTransport), userAgent, cfg.APIKey),
		},
	}, nil
}

type userDTO struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

type sessionDTO struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *userDTO `json:"user"`
}

// errorDTO покрывает обе формы ошибок GoTrue:
// {"error_code","msg"} и OAuth-стиль {"error","error_description"}.
type errorDTO struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// GetUser проверяет access-токен на стороне провайдера.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.Principal, error) {
	const op = "gotrue.GetUser"

	var u userDTO
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if u.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, &identity.ProviderError{Status: http.StatusUnauthorized, Message: "user not found"})
	}

	return toPrincipal(&u), nil
}

// RefreshSession обменивает refresh-токен на новую пару.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*identity.Session, error) {
	const op = "gotrue.RefreshSession"

	var s sessionDTO
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", grant("refresh_token"), "", body, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := toSession(&s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

// SignInWithPassword создаёт сессию по email и паролю.
// Неподтверждённый email даёт identity.ErrNoSession.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	const op = "gotrue.SignInWithPassword"

	var s sessionDTO
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token", grant("password"), "", body, &s); err != nil {
		var pe *identity.ProviderError
		if errors.As(err, &pe) && pe.Code == codeEmailNotConfirmed {
			return nil, fmt.Errorf("%s: %w", op, identity.ErrNoSession)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sess, err := toSession(&s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

// SignOut отзывает сессию провайдера.
//
// pair == nil: локальной сессии нет, отзывать нечего.
// Если access-токен отклонён (401) и известен refresh-токен, сессия
// восстанавливается через refresh и выход повторяется один раз.
// 401/403/404 на выходе значат, что сессии у провайдера уже нет.
func (c *Client) SignOut(ctx context.Context, pair *models.CredentialPair) error {
	const op = "gotrue.SignOut"

	if pair == nil || pair.AccessToken == "" {
		return nil
	}

	err := c.logout(ctx, pair.AccessToken)
	if err == nil {
		return nil
	}

	if statusOf(err) == http.StatusUnauthorized && pair.RefreshToken != "" {
		sess, rerr := c.RefreshSession(ctx, pair.RefreshToken)
		if rerr != nil {
			if identity.IsProviderRejection(rerr) {
				return nil
			}

			return fmt.Errorf("%s: %w", op, rerr)
		}

		err = c.logout(ctx, sess.Pair.AccessToken)
		if err == nil {
			return nil
		}
	}

	switch statusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil
	}

	return fmt.Errorf("%s: %w", op, err)
}

func (c *Client) logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil)
}

// do выполняет запрос к провайдеру. Ответ вне 2xx превращается в *identity.ProviderError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, bearer string, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func decodeError(status int, raw []byte) *identity.ProviderError {
	pe := &identity.ProviderError{Status: status}

	var e errorDTO
	if err := json.Unmarshal(raw, &e); err != nil {
		pe.Message = strings.TrimSpace(string(raw))
		return pe
	}

	pe.Code = firstNonEmpty(e.ErrorCode, e.Error)
	pe.Message = firstNonEmpty(e.Msg, e.ErrorDescription, e.Message, e.Error)

	return pe
}

func statusOf(err error) int {
	var pe *identity.ProviderError
	if errors.As(err, &pe) {
		return pe.Status
	}

	return 0
}

func grant(t string) url.Values {
	return url.Values{"grant_type": []string{t}}
}

func toSession(s *sessionDTO) (*identity.Session, error) {
	if s.AccessToken == "" || s.RefreshToken == "" || s.User == nil || s.User.ID == "" {
		return nil, identity.ErrNoSession
	}

	return &identity.Session{
		Pair: models.CredentialPair{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken},
		User: toPrincipal(s.User),
	}, nil
}

func toPrincipal(u *userDTO) *models.Principal {
	md := map[string]any{}
	if len(u.AppMetadata) > 0 {
		md["app_metadata"] = u.AppMetadata
	}
	if len(u.UserMetadata) > 0 {
		md["user_metadata"] = u.UserMetadata
	}

	return &models.Principal{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		Metadata: md,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}

	return ""
}
