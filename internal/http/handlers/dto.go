package handlers

import (
	"time"

	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/service"
)

// PostDTO - пост в ответах API.
type PostDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	AuthorID    string     `json:"author_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type PostListDTO struct {
	Posts  []PostDTO `json:"posts"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type CreatePostRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image"`
	Published  bool   `json:"published"`
}

// UpdatePostRequest - частичное обновление: nil-поле не меняется.
type UpdatePostRequest struct {
	Title      *string `json:"title"`
	Slug       *string `json:"slug"`
	Excerpt    *string `json:"excerpt"`
	Content    *string `json:"content"`
	CoverImage *string `json:"cover_image"`
	Published  *bool   `json:"published"`
}

// ActivityDTO - запись журнала с готовыми подписями для UI.
type ActivityDTO struct {
	ID           string         `json:"id"`
	Action       string         `json:"action"`
	Label        string         `json:"label"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	TimeAgo      string         `json:"time_ago"`
}

type ProfileDTO struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type StatsDTO struct {
	Posts int `json:"posts"`
	Users int `json:"users"`
}

type DashboardDTO struct {
	User           UserDTO       `json:"user"`
	Profile        *ProfileDTO   `json:"profile,omitempty"`
	Stats          StatsDTO      `json:"stats"`
	RecentActivity []ActivityDTO `json:"recent_activity"`
}

type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

type CoverDTO struct {
	URL string `json:"url"`
}

type DeleteCoverRequest struct {
	URL string `json:"url"`
}

func (in CreatePostRequest) toInput() service.CreatePostInput {
	return service.CreatePostInput{
		Title:      in.Title,
		Slug:       in.Slug,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: in.CoverImage,
		Published:  in.Published,
	}
}

func (in UpdatePostRequest) toInput() service.UpdatePostInput {
	return service.UpdatePostInput{
		Title:      in.Title,
		Slug:       in.Slug,
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: in.CoverImage,
		Published:  in.Published,
	}
}

func postFromModel(p *models.Post) PostDTO {
	return PostDTO{
		ID:          p.ID.String(),
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		CoverImage:  p.CoverImage,
		Published:   p.Published,
		PublishedAt: p.PublishedAt,
		AuthorID:    p.AuthorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func postsFromModels(in []models.Post) []PostDTO {
	out := make([]PostDTO, 0, len(in))
	for i := range in {
		out = append(out, postFromModel(&in[i]))
	}

	return out
}

func activityFromModels(in []models.ActivityEntry, now time.Time) []ActivityDTO {
	out := make([]ActivityDTO, 0, len(in))
	for _, e := range in {
		out = append(out, ActivityDTO{
			ID:           e.ID,
			Action:       e.Action,
			Label:        service.FormatAction(e.Action),
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Metadata:     e.Metadata,
			CreatedAt:    e.CreatedAt,
			TimeAgo:      service.FormatTimeAgo(e.CreatedAt, now),
		})
	}

	return out
}

func dashboardFromModel(p *models.Principal, d *service.Dashboard, now time.Time) DashboardDTO {
	out := DashboardDTO{
		User:           UserDTO{ID: p.ID, Email: p.Email, Role: p.Role},
		Stats:          StatsDTO{Posts: d.Stats.Posts, Users: d.Stats.Users},
		RecentActivity: activityFromModels(d.RecentActivity, now),
	}

	if d.Profile != nil {
		out.Profile = &ProfileDTO{
			ID:          d.Profile.ID,
			DisplayName: d.Profile.DisplayName,
			Role:        d.Profile.Role,
			LastLoginAt: d.Profile.LastLoginAt,
		}
	}

	return out
}
