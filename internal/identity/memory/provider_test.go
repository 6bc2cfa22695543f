package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/config"
	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeClock - управляемые часы для проверки сроков жизни.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testCfg() config.MemoryConfig {
	return config.MemoryConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		Users: []config.MemoryUser{
			{ID: "u-1", Email: "Alice@Example.com", Password: "Passw0rd!", Role: "admin", Confirmed: true},
			{ID: "u-2", Email: "new@example.com", Password: "Passw0rd!", Confirmed: false},
		},
	}
}

func newProvider(t *testing.T) (*Provider, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	p, err := New(testCfg(), WithClock(clk.Now))
	require.NoError(t, err)
	return p, clk
}

func providerErr(t *testing.T, err error) *identity.ProviderError {
	t.Helper()
	var pe *identity.ProviderError
	require.ErrorAs(t, err, &pe)
	return pe
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(config.MemoryConfig{})
	require.Error(t, err)

	cfg := testCfg()
	cfg.Users = append(cfg.Users, config.MemoryUser{Email: "alice@example.com", Password: "x"})
	_, err = New(cfg)
	require.ErrorContains(t, err, "duplicate")

	cfg = testCfg()
	cfg.Users = []config.MemoryUser{{Email: "x@example.com", Password: "$2a$broken"}}
	_, err = New(cfg)
	require.Error(t, err)
}

func TestNew_AcceptsBcryptHash(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	p, err := New(config.MemoryConfig{
		JWTSecret: "s",
		Users:     []config.MemoryUser{{Email: "h@example.com", Password: string(hash), Confirmed: true}},
	})
	require.NoError(t, err)

	s, err := p.SignInWithPassword(context.Background(), "h@example.com", "hashed-pw")
	require.NoError(t, err)
	require.Equal(t, "authenticated", s.User.Role)
	require.NotEmpty(t, s.User.ID)
}

func TestSignIn_GetUser_OK(t *testing.T) {
	t.Parallel()

	p, _ := newProvider(t)
	ctx := context.Background()

	s, err := p.SignInWithPassword(ctx, " alice@example.com ", "Passw0rd!")
	require.NoError(t, err)
	require.True(t, s.Pair.Complete())
	require.Equal(t, "u-1", s.User.ID)
	require.Equal(t, "alice@example.com", s.User.Email)

	u, err := p.GetUser(ctx, s.Pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)
	require.Equal(t, "admin", u.Role)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	t.Parallel()

	p, _ := newProvider(t)

	_, err := p.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	require.Equal(t, "Invalid login credentials", providerErr(t, err).Message)

	_, err = p.SignInWithPassword(context.Background(), "ghost@example.com", "Passw0rd!")
	require.Equal(t, "invalid_credentials", providerErr(t, err).Code)
}

func TestSignIn_Unconfirmed_NoSession(t *testing.T) {
	t.Parallel()

	p, _ := newProvider(t)

	_, err := p.SignInWithPassword(context.Background(), "new@example.com", "Passw0rd!")
	require.ErrorIs(t, err, identity.ErrNoSession)
}

func TestGetUser_RejectsForeignAndExpiredTokens(t *testing.T) {
	t.Parallel()

	p, clk := newProvider(t)
	ctx := context.Background()

	_, err := p.GetUser(ctx, "garbage")
	require.Equal(t, 401, providerErr(t, err).Status)

	other, err := New(config.MemoryConfig{JWTSecret: "other", Users: testCfg().Users}, WithClock(clk.Now))
	require.NoError(t, err)
	foreign, err := other.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	_, err = p.GetUser(ctx, foreign.Pair.AccessToken)
	require.Error(t, err)

	s, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	_, err = p.GetUser(ctx, s.Pair.AccessToken)
	require.Equal(t, "invalid JWT: token is expired", providerErr(t, err).Message)
}

func TestRefresh_RotatesAndRejectsReuse(t *testing.T) {
	t.Parallel()

	p, clk := newProvider(t)
	ctx := context.Background()

	s, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	next, err := p.RefreshSession(ctx, s.Pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, s.Pair.RefreshToken, next.Pair.RefreshToken)
	require.Equal(t, "u-1", next.User.ID)

	u, err := p.GetUser(ctx, next.Pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u-1", u.ID)

	_, err = p.RefreshSession(ctx, s.Pair.RefreshToken)
	require.Equal(t, "Invalid Refresh Token: Already Used", providerErr(t, err).Message)

	_, err = p.RefreshSession(ctx, "unknown")
	require.Equal(t, "refresh_token_not_found", providerErr(t, err).Code)
}

func TestRefresh_Expired(t *testing.T) {
	t.Parallel()

	p, clk := newProvider(t)
	s, err := p.SignInWithPassword(context.Background(), "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = p.RefreshSession(context.Background(), s.Pair.RefreshToken)
	require.Equal(t, "Invalid Refresh Token: Refresh Token Expired", providerErr(t, err).Message)
}

func TestSignOut_RevokesAllSessions(t *testing.T) {
	t.Parallel()

	p, _ := newProvider(t)
	ctx := context.Background()

	s1, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	s2, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, &s1.Pair))

	for _, s := range []*identity.Session{s1, s2} {
		_, err = p.GetUser(ctx, s.Pair.AccessToken)
		require.Error(t, err)
		_, err = p.RefreshSession(ctx, s.Pair.RefreshToken)
		require.Error(t, err)
	}
}

// Истёкший access в паре: владелец находится по refresh-токену.
func TestSignOut_ExpiredAccess_UsesRefresh(t *testing.T) {
	t.Parallel()

	p, clk := newProvider(t)
	ctx := context.Background()

	s, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	clk.Advance(2 * time.Minute)

	require.NoError(t, p.SignOut(ctx, &s.Pair))

	_, err = p.RefreshSession(ctx, s.Pair.RefreshToken)
	require.Error(t, err)
}

func TestSignOut_NilOrUnknownPair(t *testing.T) {
	t.Parallel()

	p, _ := newProvider(t)
	require.NoError(t, p.SignOut(context.Background(), nil))
	require.NoError(t, p.SignOut(context.Background(), &models.CredentialPair{AccessToken: "x", RefreshToken: "y"}))
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	p, _ := newProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GetUser(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
	_, err = p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.ErrorIs(t, err, context.Canceled)
}

func (p *Provider) sizes() (sessions, refresh int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions), len(p.refresh)
}

func TestRotation_PrunesExpiredTokensAndSessions(t *testing.T) {
	t.Parallel()

	p, clk := newProvider(t)
	ctx := context.Background()

	first, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	cur := first
	for i := 0; i < 5; i++ {
		clk.Advance(time.Minute)
		cur, err = p.RefreshSession(ctx, cur.Pair.RefreshToken)
		require.NoError(t, err)
	}

	// Использованные токены ещё не истекли: повтор распознаётся.
	_, err = p.RefreshSession(ctx, first.Pair.RefreshToken)
	require.Equal(t, "refresh_token_already_used", providerErr(t, err).Code)

	sessions, refresh := p.sizes()
	require.Equal(t, 1, sessions)
	require.Equal(t, 6, refresh)

	// Все токены первой сессии истекли: новый вход их вычищает.
	clk.Advance(2 * time.Hour)
	next, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	sessions, refresh = p.sizes()
	require.Equal(t, 1, sessions)
	require.Equal(t, 1, refresh)

	_, err = p.GetUser(ctx, next.Pair.AccessToken)
	require.NoError(t, err)

	_, err = p.RefreshSession(ctx, cur.Pair.RefreshToken)
	require.Equal(t, "refresh_token_not_found", providerErr(t, err).Code)
}

func TestRotation_KeepsLiveSessionOfAnotherLogin(t *testing.T) {
	t.Parallel()

	p, clk := newProvider(t)
	ctx := context.Background()

	a, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	clk.Advance(30 * time.Minute)
	b, err := p.SignInWithPassword(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)

	// Токен a истёк, токен b ещё жив: ротация b чистит только сессию a.
	clk.Advance(40 * time.Minute)
	nb, err := p.RefreshSession(ctx, b.Pair.RefreshToken)
	require.NoError(t, err)

	sessions, refresh := p.sizes()
	require.Equal(t, 1, sessions)
	require.Equal(t, 2, refresh)

	_, err = p.GetUser(ctx, nb.Pair.AccessToken)
	require.NoError(t, err)

	_, err = p.RefreshSession(ctx, a.Pair.RefreshToken)
	require.Equal(t, "refresh_token_not_found", providerErr(t, err).Code)
}
