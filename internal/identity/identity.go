// identity описывает клиента внешнего провайдера идентичности.
//
// Клиент инжектится в гард и обработчики; глобального экземпляра нет.
// Реализации: gotrue (REST-провайдер, продакшн) и memory (local/dev, тесты).
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-blog-admin/internal/models"
)

//go:generate mockgen -destination=../../mocks/identity_mock.go -package=mocks github.com/pribylovaa/go-blog-admin/internal/identity Client

// ErrNoSession - провайдер ответил без ошибки, но и без сессии
// (например, email не подтверждён).
var ErrNoSession = errors.New("identity: provider returned no session")

// Session - результат входа или обновления: новая пара и её владелец.
type Session struct {
	Pair models.CredentialPair
	User *models.Principal
}

// Client - операции провайдера, которые использует админка.
type Client interface {
	// GetUser проверяет access-токен и возвращает его владельца.
	GetUser(ctx context.Context, accessToken string) (*models.Principal, error)
	// RefreshSession обменивает refresh-токен на новую пару.
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	// SignInWithPassword создаёт сессию по email и паролю.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignOut отзывает сессию на стороне провайдера. При pair != nil сессия
	// сначала восстанавливается из пары; при nil выход всё равно выполняется.
	SignOut(ctx context.Context, pair *models.CredentialPair) error
}

// ProviderError - отказ, сообщённый самим провайдером (не транспорт).
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("identity provider responded with status %d", e.Status)
	}
}

// IsProviderRejection - ошибка пришла от провайдера, а не от транспорта.
func IsProviderRejection(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) || errors.Is(err, ErrNoSession)
}

// Message - текст ошибки для клиента: сообщение провайдера, если оно есть.
func Message(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Error()
	}

	return err.Error()
}
