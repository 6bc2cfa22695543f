package models

import (
	"time"

	"github.com/google/uuid"
)

// Post - запись блога.
// PublishedAt == nil для черновиков, которые ни разу не публиковались.
type Post struct {
	ID          uuid.UUID
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	CoverImage  string
	Published   bool
	PublishedAt *time.Time
	AuthorID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
