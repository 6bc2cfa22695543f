// memory - встроенный провайдер идентичности для local/dev окружений и тестов.
//
// Ведёт себя как GoTrue на уровне контракта identity.Client:
//   - access-токен - HS256 JWT с коротким TTL и идентификатором сессии (sid);
//   - refresh-токен - случайный секрет, одноразовый (ротация), в памяти хранится только хэш;
//   - выход удаляет все сессии пользователя, после чего его access-токены не проходят GetUser.
package memory

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "blog-admin-memory"

var _ identity.Client = (*Provider)(nil)

// Ошибки в форме ответов GoTrue.
var (
	errInvalidCredentials = &identity.ProviderError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	errBadJWT             = &identity.ProviderError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT: unable to parse or verify signature"}
	errExpiredJWT         = &identity.ProviderError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT: token is expired"}
	errSessionNotFound    = &identity.ProviderError{Status: http.StatusForbidden, Code: "session_not_found", Message: "Session from session_id claim in JWT does not exist"}
	errRefreshNotFound    = &identity.ProviderError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid Refresh Token: Refresh Token Not Found"}
	errRefreshUsed        = &identity.ProviderError{Status: http.StatusBadRequest, Code: "refresh_token_already_used", Message: "Invalid Refresh Token: Already Used"}
	errRefreshExpired     = &identity.ProviderError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid Refresh Token: Refresh Token Expired"}
)

type accessClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type user struct {
	id           string
	email        string
	passwordHash string
	role         string
	confirmed    bool
}

type refreshToken struct {
	sessionID string
	userID    string
	expiresAt time.Time
	revoked   bool
}

// Option настраивает Provider.
type Option func(*Provider)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// Provider - in-memory провайдер. Безопасен для конкурентного использования.
type Provider struct {
	cfg config.MemoryConfig
	now func() time.Time

	mu       sync.Mutex
	byEmail  map[string]*user
	byID     map[string]*user
	sessions map[string]string // session_id -> user_id
	refresh  map[string]*refreshToken
}

// New создаёт провайдер и заводит пользователей из конфигурации.
// Пароль пользователя - bcrypt-хэш либо открытый текст (хэшируется здесь).
func New(cfg config.MemoryConfig, opts ...Option) (*Provider, error) {
	const op = "memory.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: jwt secret is required", op)
	}

	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 30 * 24 * time.Hour
	}

	p := &Provider{
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		byEmail:  make(map[string]*user, len(cfg.Users)),
		byID:     make(map[string]*user, len(cfg.Users)),
		sessions: make(map[string]string),
		refresh:  make(map[string]*refreshToken),
	}

	for _, o := range opts {
		o(p)
	}

	for _, mu := range cfg.Users {
		email := normalizeEmail(mu.Email)
		if email == "" || mu.Password == "" {
			return nil, fmt.Errorf("%s: user %q: email and password are required", op, mu.Email)
		}

		if _, dup := p.byEmail[email]; dup {
			return nil, fmt.Errorf("%s: duplicate user %q", op, email)
		}

		hash, err := passwordHash(mu.Password)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		id := mu.ID
		if id == "" {
			id = uuid.NewString()
		}

		role := mu.Role
		if role == "" {
			role = "authenticated"
		}

		u := &user{id: id, email: email, passwordHash: hash, role: role, confirmed: mu.Confirmed}
		p.byEmail[email] = u
		p.byID[id] = u
	}

	return p, nil
}

// GetUser проверяет подпись, срок жизни и наличие сессии.
func (p *Provider) GetUser(ctx context.Context, accessToken string) (*models.Principal, error) {
	const op = "memory.GetUser"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, err := p.parseAccess(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if uid, ok := p.sessions[claims.SessionID]; !ok || uid != claims.Subject {
		return nil, fmt.Errorf("%s: %w", op, errSessionNotFound)
	}

	u, ok := p.byID[claims.Subject]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, errBadJWT)
	}

	return u.principal(), nil
}

// RefreshSession ротирует refresh-токен: старый помечается использованным.
func (p *Provider) RefreshSession(ctx context.Context, refreshToken string) (*identity.Session, error) {
	const op = "memory.RefreshSession"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rt, err := p.lookupRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, ok := p.byID[rt.userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, errRefreshNotFound)
	}

	p.prune(p.now())
	rt.revoked = true

	sess, err := p.issue(u, rt.sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

// SignInWithPassword проверяет пароль и открывает новую сессию.
// Неподтверждённый пользователь получает identity.ErrNoSession.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	const op = "memory.SignInWithPassword"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.mu.Lock()
	u, ok := p.byEmail[normalizeEmail(email)]
	p.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%s: %w", op, errInvalidCredentials)
	}

	if !u.confirmed {
		return nil, fmt.Errorf("%s: %w", op, identity.ErrNoSession)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.prune(p.now())

	sid := uuid.NewString()
	p.sessions[sid] = u.id

	sess, err := p.issue(u, sid)
	if err != nil {
		delete(p.sessions, sid)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

// SignOut удаляет все сессии пользователя и их refresh-токены.
// Владелец определяется по access-токену, а если тот не проходит проверку,
// то по refresh-токену пары. Неизвестная пара не считается ошибкой.
func (p *Provider) SignOut(ctx context.Context, pair *models.CredentialPair) error {
	const op = "memory.SignOut"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if pair == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var userID string
	if claims, err := p.parseAccess(pair.AccessToken); err == nil {
		if uid, ok := p.sessions[claims.SessionID]; ok && uid == claims.Subject {
			userID = uid
		}
	}

	if userID == "" && pair.RefreshToken != "" {
		if rt, err := p.lookupRefresh(pair.RefreshToken); err == nil {
			userID = rt.userID
		}
	}

	if userID == "" {
		return nil
	}

	for sid, uid := range p.sessions {
		if uid == userID {
			delete(p.sessions, sid)
		}
	}

	for hash, rt := range p.refresh {
		if rt.userID == userID {
			delete(p.refresh, hash)
		}
	}

	return nil
}

// issue выпускает пару в рамках сессии sid. Вызывается под p.mu.
func (p *Provider) issue(u *user, sid string) (*identity.Session, error) {
	now := p.now()

	claims := accessClaims{
		Email:     u.email,
		Role:      u.role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   u.id,
			ID:        uuid.NewString(),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	plain := base64.RawURLEncoding.EncodeToString(b)

	p.refresh[hashToken(plain)] = &refreshToken{
		sessionID: sid,
		userID:    u.id,
		expiresAt: now.Add(p.cfg.RefreshTokenTTL),
	}

	return &identity.Session{
		Pair: models.CredentialPair{AccessToken: access, RefreshToken: plain},
		User: u.principal(),
	}, nil
}

// prune удаляет истёкшие refresh-токены, в том числе использованные, и сессии,
// у которых не осталось ни одного неистёкшего токена. Использованный токен
// живёт до своего expiresAt, чтобы повтор давал "Already Used". Вызывается под p.mu.
func (p *Provider) prune(now time.Time) {
	alive := make(map[string]struct{}, len(p.sessions))

	for hash, rt := range p.refresh {
		if now.After(rt.expiresAt) {
			delete(p.refresh, hash)
			continue
		}
		alive[rt.sessionID] = struct{}{}
	}

	for sid := range p.sessions {
		if _, ok := alive[sid]; !ok {
			delete(p.sessions, sid)
		}
	}
}

// lookupRefresh находит живой refresh-токен. Вызывается под p.mu.
func (p *Provider) lookupRefresh(plain string) (*refreshToken, error) {
	rt, ok := p.refresh[hashToken(plain)]
	if !ok {
		return nil, errRefreshNotFound
	}

	if rt.revoked {
		return nil, errRefreshUsed
	}

	if p.now().After(rt.expiresAt) {
		return nil, errRefreshExpired
	}

	if _, ok := p.sessions[rt.sessionID]; !ok {
		return nil, errRefreshNotFound
	}

	return rt, nil
}

func (p *Provider) parseAccess(tokenStr string) (*accessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return []byte(p.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errExpiredJWT
		}

		return nil, errBadJWT
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errBadJWT
	}

	return claims, nil
}

func (u *user) principal() *models.Principal {
	return &models.Principal{
		ID:       u.id,
		Email:    u.email,
		Role:     u.role,
		Metadata: map[string]any{"provider": "memory"},
	}
}

func passwordHash(pw string) (string, error) {
	if strings.HasPrefix(pw, "$2a$") || strings.HasPrefix(pw, "$2b$") || strings.HasPrefix(pw, "$2y$") {
		if _, err := bcrypt.Cost([]byte(pw)); err != nil {
			return "", fmt.Errorf("invalid bcrypt hash: %w", err)
		}

		return pw, nil
	}

	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(b), nil
}

func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
