package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-blog-admin/internal/errors"
	"github.com/pribylovaa/go-blog-admin/internal/service"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// Dashboard - GET /admin: пользователь, профиль, счётчики и последние действия.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := session.PrincipalFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrUnauthenticated)
		return
	}

	d, err := h.Service.Dashboard(r.Context(), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboardFromModel(p, d, h.now()))
}

// ListActivity - GET /admin/api/activity?limit=N: журнал текущего пользователя.
func (h *Handlers) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	p, _ := session.PrincipalFrom(r.Context())

	items, err := h.Service.ListActivity(r.Context(), p, limit)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Items []ActivityDTO `json:"items"`
	}{Items: activityFromModels(items, h.now())})
}
