package models

import "time"

// Действия журнала активности.
const (
	ActionUserLogin       = "user_login"
	ActionUserLogout      = "user_logout"
	ActionPostCreated     = "post_created"
	ActionPostUpdated     = "post_updated"
	ActionPostDeleted     = "post_deleted"
	ActionSettingsUpdated = "settings_updated"
	ActionFileUploaded    = "file_uploaded"
)

// Типы ресурсов журнала активности.
const (
	ResourceAuth    = "auth"
	ResourcePost    = "post"
	ResourceFile    = "file"
	ResourceSetting = "setting"
)

// ActivityEntry - запись аудита действий пользователя.
type ActivityEntry struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
	CreatedAt    time.Time
}
