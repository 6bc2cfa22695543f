package session

import "errors"

var (
	// ErrNotAuthenticated - нет cookie или присутствует только одна из двух.
	// Разрешается гардом в редирект на страницу входа.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrCredentialInvalid - провайдер не подтвердил access-токен.
	// Не финальное состояние: за ним всегда следует попытка refresh.
	ErrCredentialInvalid = errors.New("credential invalid")

	// ErrRefreshFailed - refresh отклонён или не вернул пригодную сессию.
	// Разрешается гардом в очистку cookie и редирект.
	ErrRefreshFailed = errors.New("refresh failed")

	// ErrProviderError - транспортная/неожиданная ошибка провайдера.
	// В гарде сворачивается в ErrRefreshFailed (fail-closed).
	ErrProviderError = errors.New("identity provider error")

	// ErrValidation - не заданы email/пароль при входе.
	ErrValidation = errors.New("email and password are required")
)
