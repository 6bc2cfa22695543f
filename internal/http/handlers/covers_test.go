package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/storage"
	"github.com/stretchr/testify/require"
)

func multipartReq(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)

	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/api/covers", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadCover_Created(t *testing.T) {
	env := newTestEnv(t)
	data := []byte("\x89PNG fake image")

	env.covers.EXPECT().PutCover(gomock.Any(), gomock.Any(), "image/png", gomock.Any(), int64(len(data))).
		DoAndReturn(func(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
			require.True(t, strings.HasPrefix(key, "covers/1714564800000-"), key)
			require.True(t, strings.HasSuffix(key, ".png"), key)

			got, err := io.ReadAll(body)
			require.NoError(t, err)
			require.Equal(t, data, got)

			return "http://localhost:9000/images/" + key, nil
		})
	env.expectActivity(models.ActionFileUploaded)

	rr := httptest.NewRecorder()
	env.h.UploadCover(rr, asAlice(multipartReq(t, "file", "cover.png", "image/png", data)))

	require.Equal(t, http.StatusCreated, rr.Code)

	var got CoverDTO
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.True(t, strings.HasPrefix(got.URL, "http://localhost:9000/images/covers/"))
}

func TestUploadCover_Rejected(t *testing.T) {
	env := newTestEnv(t)

	// Поле формы не "file".
	rr := httptest.NewRecorder()
	env.h.UploadCover(rr, asAlice(multipartReq(t, "image", "cover.png", "image/png", []byte("x"))))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Тип не из allow-list.
	rr = httptest.NewRecorder()
	env.h.UploadCover(rr, asAlice(multipartReq(t, "file", "doc.pdf", "application/pdf", []byte("x"))))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Не multipart.
	rr = httptest.NewRecorder()
	env.h.UploadCover(rr, asAlice(jsonReq(t, http.MethodPost, "/admin/api/covers", `{}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteCover(t *testing.T) {
	env := newTestEnv(t)
	url := "http://localhost:9000/images/covers/1-a.png"

	env.covers.EXPECT().KeyFromURL(url).Return("covers/1-a.png", nil)
	env.covers.EXPECT().DeleteCover(gomock.Any(), "covers/1-a.png").Return(nil)

	rr := httptest.NewRecorder()
	env.h.DeleteCover(rr, asAlice(jsonReq(t, http.MethodDelete, "/admin/api/covers", DeleteCoverRequest{URL: url})))
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestDeleteCover_Errors(t *testing.T) {
	env := newTestEnv(t)

	env.covers.EXPECT().KeyFromURL("https://elsewhere/x.png").Return("", storage.ErrInvalidArgument)
	env.covers.EXPECT().KeyFromURL("http://localhost:9000/images/covers/gone.png").Return("covers/gone.png", nil)
	env.covers.EXPECT().DeleteCover(gomock.Any(), "covers/gone.png").Return(storage.ErrNotFound)

	rr := httptest.NewRecorder()
	env.h.DeleteCover(rr, asAlice(jsonReq(t, http.MethodDelete, "/admin/api/covers", DeleteCoverRequest{})))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.h.DeleteCover(rr, asAlice(jsonReq(t, http.MethodDelete, "/admin/api/covers", DeleteCoverRequest{URL: "https://elsewhere/x.png"})))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.h.DeleteCover(rr, asAlice(jsonReq(t, http.MethodDelete, "/admin/api/covers", DeleteCoverRequest{URL: "http://localhost:9000/images/covers/gone.png"})))
	require.Equal(t, http.StatusNotFound, rr.Code)
}
