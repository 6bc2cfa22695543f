package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/go-blog-admin/internal/errors"
	"github.com/pribylovaa/go-blog-admin/internal/service"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// pagination - limit/offset из query; пустые значения дают 0 (дефолт сервиса).
func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}

	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}

	return limit, offset, nil
}

func postID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, service.ErrInvalidArgument
	}

	return id, nil
}

// ListPosts - GET /admin/api/posts: все посты, включая черновики.
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	posts, err := h.Service.ListPosts(r.Context(), limit, offset)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostListDTO{Posts: postsFromModels(posts), Limit: limit, Offset: offset})
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in CreatePostRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	p, _ := session.PrincipalFrom(r.Context())

	post, err := h.Service.CreatePost(r.Context(), p, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, postFromModel(post))
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.Service.PostByID(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postFromModel(post))
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in UpdatePostRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	p, _ := session.PrincipalFrom(r.Context())

	upd := in.toInput()
	upd.ID = id

	post, err := h.Service.UpdatePost(r.Context(), p, upd)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postFromModel(post))
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	p, _ := session.PrincipalFrom(r.Context())

	if err := h.Service.DeletePost(r.Context(), p, id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PublishedPosts - GET /api/posts: публичная лента.
func (h *Handlers) PublishedPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	posts, err := h.Service.PublishedPosts(r.Context(), limit, offset)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PostListDTO{Posts: postsFromModels(posts), Limit: limit, Offset: offset})
}

// PublishedPostBySlug - GET /api/posts/{slug}. Черновики отдаются как 404.
func (h *Handlers) PublishedPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	post, err := h.Service.PublishedPostBySlug(r.Context(), slug)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postFromModel(post))
}
