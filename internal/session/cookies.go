package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/models"
)

// Значения политики cookie по умолчанию.
const (
	DefaultAccessCookie  = "access-token"
	DefaultRefreshCookie = "refresh-token"
	DefaultMaxAge        = 7 * 24 * time.Hour
)

// MutationKind - вид изменения клиентского состояния сессии.
type MutationKind int

const (
	MutationNone MutationKind = iota
	MutationSet
	MutationClear
)

func (k MutationKind) String() string {
	switch k {
	case MutationSet:
		return "set"
	case MutationClear:
		return "clear"
	default:
		return "none"
	}
}

// Mutation - решение об изменении пары cookie, возвращаемое как данные.
// Pair заполнен только для MutationSet.
type Mutation struct {
	Kind MutationKind
	Pair models.CredentialPair
}

// NoMutation - оставить cookie как есть.
func NoMutation() Mutation { return Mutation{Kind: MutationNone} }

// SetPair - перезаписать обе cookie новой парой.
func SetPair(pair models.CredentialPair) Mutation {
	return Mutation{Kind: MutationSet, Pair: pair}
}

// ClearPair - удалить обе cookie.
func ClearPair() Mutation { return Mutation{Kind: MutationClear} }

// CookiePolicy - хранилище пары токенов в двух cookie с фиксированными атрибутами.
// Инвариант: на клиенте либо обе cookie одной пары, либо ни одной.
type CookiePolicy struct {
	AccessName  string
	RefreshName string
	MaxAge      time.Duration
	// Production форсирует Secure независимо от схемы запроса.
	Production bool
}

// DefaultCookiePolicy возвращает политику с именами и сроком жизни по умолчанию.
func DefaultCookiePolicy(production bool) CookiePolicy {
	return CookiePolicy{
		AccessName:  DefaultAccessCookie,
		RefreshName: DefaultRefreshCookie,
		MaxAge:      DefaultMaxAge,
		Production:  production,
	}
}

// Read достаёт пару из запроса.
// Отсутствие любой из cookie трактуется как отсутствие обеих: возвращается пустая пара.
func (p CookiePolicy) Read(r *http.Request) models.CredentialPair {
	pair := models.CredentialPair{
		AccessToken:  cookieValue(r, p.AccessName),
		RefreshToken: cookieValue(r, p.RefreshName),
	}

	if !pair.Complete() {
		return models.CredentialPair{}
	}

	return pair
}

// Secure: продакшн, либо X-Forwarded-Proto == https (TLS терминируется на прокси),
// либо сам запрос пришёл по https.
func (p CookiePolicy) Secure(r *http.Request) bool {
	if p.Production {
		return true
	}

	if proto := r.Header.Get("X-Forwarded-Proto"); strings.EqualFold(strings.TrimSpace(proto), "https") {
		return true
	}

	return r.TLS != nil || strings.EqualFold(r.URL.Scheme, "https")
}

// Apply применяет мутацию к ответу. Обе cookie пишутся вместе;
// Set с неполной парой превращается в Clear.
func (p CookiePolicy) Apply(w http.ResponseWriter, r *http.Request, m Mutation) {
	switch m.Kind {
	case MutationSet:
		if !m.Pair.Complete() {
			p.clear(w, r)
			return
		}

		secure := p.Secure(r)
		http.SetCookie(w, p.cookie(p.AccessName, m.Pair.AccessToken, secure))
		http.SetCookie(w, p.cookie(p.RefreshName, m.Pair.RefreshToken, secure))
	case MutationClear:
		p.clear(w, r)
	}
}

func (p CookiePolicy) clear(w http.ResponseWriter, r *http.Request) {
	secure := p.Secure(r)
	for _, name := range []string{p.AccessName, p.RefreshName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (p CookiePolicy) cookie(name, value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(p.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}
