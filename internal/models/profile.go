package models

import "time"

// AdminProfile - профиль администратора (таблица admin_profiles).
// ID совпадает с идентификатором Principal.
type AdminProfile struct {
	ID          string
	DisplayName string
	Role        string
	LastLoginAt *time.Time
	CreatedAt   time.Time
}
