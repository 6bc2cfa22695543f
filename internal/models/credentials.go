// models содержит доменные сущности blog-admin.
// Эти типы используются слоями сессии, бизнес-логики, хранилища и транспорта.
package models

// CredentialPair - пара непрозрачных токенов, выданных провайдером идентичности.
// Содержимое токенов локально не разбирается.
type CredentialPair struct {
	AccessToken  string
	RefreshToken string
}

// Complete сообщает, присутствуют ли оба токена.
// Неполная пара никогда не аутентифицирует.
func (p CredentialPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Principal - аутентифицированный пользователь, каким его вернул провайдер.
// Никогда не конструируется локально и не сохраняется между запросами.
type Principal struct {
	ID    string
	Email string
	Role  string
	// Metadata - прочие поля провайдера (app/user metadata), как есть.
	Metadata map[string]any
}
