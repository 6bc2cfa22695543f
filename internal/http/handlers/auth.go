package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pribylovaa/go-blog-admin/internal/identity"
	"github.com/pribylovaa/go-blog-admin/internal/limiter"
	"github.com/pribylovaa/go-blog-admin/internal/metrics"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/pkg/redact"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// Сообщения плоского формата {"error": "..."} эндпоинтов входа/выхода.
const (
	msgInvalidBody      = "invalid request body"
	msgNoSession        = "No session provided. Please check if your email is confirmed."
	msgRateLimited      = "too many login attempts"
	msgProviderDown     = "authentication service unavailable"
	msgSignOutFailedDef = "sign out failed"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authError struct {
	Error string `json:"error"`
}

type loginResponse struct {
	Success bool `json:"success"`
}

// Login - POST /api/auth/login.
//
// Cookie ставятся только при успехе, и только обе сразу.
// Отказ провайдера отдаётся клиенту с сообщением провайдера (401).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers/auth/Login"

	ctx := r.Context()
	lg := log.From(ctx).With("op", op)

	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.Metrics.Login(metrics.LoginInvalid)
		writeJSON(w, http.StatusBadRequest, authError{Error: msgInvalidBody})
		return
	}

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		h.Metrics.Login(metrics.LoginInvalid)
		lg.Info("login_invalid", "err", session.ErrValidation)
		writeJSON(w, http.StatusBadRequest, authError{Error: session.ErrValidation.Error()})
		return
	}

	lg = lg.With("email", redact.Email(email))

	if h.Limiter != nil {
		err := h.Limiter.Allow(ctx, email)
		switch {
		case err == nil:
		case errors.Is(err, limiter.ErrRateLimited):
			h.Metrics.Login(metrics.LoginRateLimited)
			lg.Info("login_rate_limited")
			writeJSON(w, http.StatusTooManyRequests, authError{Error: msgRateLimited})
			return
		default:
			// Недоступный Redis не должен блокировать вход.
			lg.Warn("login_limiter_failed", "err", err)
		}
	}

	sess, err := h.Identity.SignInWithPassword(ctx, email, in.Password)
	if err == nil && (sess == nil || !sess.Pair.Complete()) {
		err = identity.ErrNoSession
	}

	if err != nil {
		switch {
		case errors.Is(err, identity.ErrNoSession):
			h.Metrics.Login(metrics.LoginNoSession)
			lg.Info("login_no_session")
			writeJSON(w, http.StatusUnauthorized, authError{Error: msgNoSession})
		case identity.IsProviderRejection(err):
			h.Metrics.Login(metrics.LoginRejected)
			lg.Info("login_rejected", "err", err)
			writeJSON(w, http.StatusUnauthorized, authError{Error: identity.Message(err)})
		default:
			h.Metrics.Login(metrics.LoginError)
			lg.Error("login_failed", "err", err)
			writeJSON(w, http.StatusUnauthorized, authError{Error: msgProviderDown})
		}
		return
	}

	h.Cookies.Apply(w, r, session.SetPair(sess.Pair))

	if h.Limiter != nil {
		if err := h.Limiter.Reset(ctx, email); err != nil {
			lg.Warn("login_limiter_reset_failed", "err", err)
		}
	}

	if h.Service != nil {
		h.Service.RecordLogin(ctx, sess.User)
	}

	h.Metrics.Login(metrics.LoginSuccess)
	lg.Info("login_succeeded")

	writeJSON(w, http.StatusOK, loginResponse{Success: true})
}

// Logout - POST /api/auth/logout.
//
// SignOut вызывается ровно один раз; при полной паре в cookie сессия провайдера
// сначала восстанавливается из неё. Cookie удаляются всегда, до записи ответа.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	const op = "handlers/auth/Logout"

	ctx := r.Context()
	lg := log.From(ctx).With("op", op)

	var pair *models.CredentialPair
	if creds := h.Cookies.Read(r); creds.Complete() {
		pair = &creds
	}

	// Запись аудита до отзыва сессии, пока access-токен ещё действителен.
	if pair != nil && h.Service != nil {
		p, err := h.Identity.GetUser(ctx, pair.AccessToken)
		switch {
		case err != nil:
			lg.Debug("logout_principal_unresolved", "err", err)
		case p != nil:
			h.Service.RecordLogout(ctx, p)
		}
	}

	err := h.Identity.SignOut(ctx, pair)

	h.Cookies.Apply(w, r, session.ClearPair())

	if err != nil {
		lg.Warn("signout_failed", "err", err)

		// Наружу уходит только сообщение провайдера; текст транспортной
		// ошибки содержит адрес провайдера.
		msg := msgSignOutFailedDef
		if identity.IsProviderRejection(err) {
			if m := identity.Message(err); m != "" {
				msg = m
			}
		}
		writeJSON(w, http.StatusInternalServerError, authError{Error: msg})
		return
	}

	lg.Info("logout_succeeded", "had_session", pair != nil)
	http.Redirect(w, r, h.LoginPath, http.StatusFound)
}
