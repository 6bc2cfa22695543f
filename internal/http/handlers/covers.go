package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-blog-admin/internal/errors"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/service"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// Ограничения multipart-запроса; точный лимит размера проверяет сервис.
const (
	maxUploadBody      = 32 << 20
	maxMultipartMemory = 8 << 20
	coverFormField     = "file"
)

// UploadCover - POST /admin/api/covers (multipart/form-data, поле "file").
func (h *Handlers) UploadCover(w http.ResponseWriter, r *http.Request) {
	const op = "handlers/covers/UploadCover"

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		log.From(r.Context()).Debug("invalid multipart form", "op", op, "err", err)
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile(coverFormField)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}
	defer file.Close()

	p, _ := session.PrincipalFrom(r.Context())

	url, err := h.Service.UploadCover(r.Context(), p, service.UploadCoverInput{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        file,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CoverDTO{URL: url})
}

// DeleteCover - DELETE /admin/api/covers с телом {"url": "..."}.
func (h *Handlers) DeleteCover(w http.ResponseWriter, r *http.Request) {
	var in DeleteCoverRequest
	if err := decodeStrict(r, &in); err != nil || in.URL == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	p, _ := session.PrincipalFrom(r.Context())

	if err := h.Service.DeleteCover(r.Context(), p, in.URL); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
