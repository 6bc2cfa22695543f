package session

import "strings"

// DefaultProtectedPrefix - префикс админки по умолчанию.
const DefaultProtectedPrefix = "/admin"

// Routes классифицирует пути запросов. Без состояния, безопасен для конкурентного использования.
type Routes struct {
	prefix string
}

// NewRoutes создаёт классификатор для префикса вида "/segment".
// Пустой префикс заменяется на DefaultProtectedPrefix; хвостовой "/" отбрасывается.
func NewRoutes(prefix string) Routes {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultProtectedPrefix
	}

	return Routes{prefix: prefix}
}

// Prefix возвращает защищаемый префикс.
func (r Routes) Prefix() string { return r.prefix }

// IsProtected: path == prefix или path начинается с prefix + "/".
// "/administrator" не совпадает с "/admin".
func (r Routes) IsProtected(path string) bool {
	return path == r.prefix || strings.HasPrefix(path, r.prefix+"/")
}

// IsProtected - классификатор с префиксом по умолчанию.
func IsProtected(path string) bool {
	return NewRoutes(DefaultProtectedPrefix).IsProtected(path)
}
