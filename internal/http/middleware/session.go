package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-blog-admin/internal/metrics"
	"github.com/pribylovaa/go-blog-admin/internal/models"
	logctx "github.com/pribylovaa/go-blog-admin/internal/pkg/log"
	"github.com/pribylovaa/go-blog-admin/internal/session"
)

// Evaluator - автомат гарда (session.Guard).
type Evaluator interface {
	Evaluate(ctx context.Context, path string, creds models.CredentialPair) session.Decision
}

// SessionOptions - параметры HTTP-адаптера гарда.
type SessionOptions struct {
	Cookies   session.CookiePolicy
	LoginPath string
	Metrics   *metrics.Metrics
}

// Session - HTTP-адаптер гарда: читает пару из cookie, вызывает автомат
// и применяет решение.
//
// Порядок: мутация cookie пишется до редиректа/ответа. Если контекст
// запроса уже отменён клиентом, ни мутация, ни ответ не пишутся.
// При Proceed principal кладётся в контекст (session.PrincipalFrom).
func Session(g Evaluator, opts SessionOptions) Middleware {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			d := g.Evaluate(ctx, r.URL.Path, opts.Cookies.Read(r))

			if d.State == session.StateUnprotected {
				next.ServeHTTP(w, r)
				return
			}

			lg := logctx.From(ctx)
			label := decisionLabel(d)

			if errors.Is(ctx.Err(), context.Canceled) {
				lg.Debug("guard_aborted", "path", r.URL.Path, "state", label)
				return
			}

			opts.Cookies.Apply(w, r, d.Mutation)
			opts.Metrics.GuardDecision(label)

			if d.Outcome == session.OutcomeDeny {
				lg.Info("guard_denied",
					"path", r.URL.Path,
					"state", label,
					"mutation", d.Mutation.Kind.String(),
					"reason", errString(d.Reason),
				)
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			ctx = logctx.With(ctx, "user_id", d.Principal.ID)
			logctx.From(ctx).Debug("guard_authenticated",
				"path", r.URL.Path,
				"state", label,
				"mutation", d.Mutation.Kind.String(),
			)

			ctx = session.WithPrincipal(ctx, d.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// decisionLabel - метка решения для логов и метрик:
// valid, refreshed, no_credentials, refresh_failed.
func decisionLabel(d session.Decision) string {
	switch d.State {
	case session.StateAuthenticated:
		if d.Mutation.Kind == session.MutationSet {
			return "refreshed"
		}
		return session.StateValid.String()
	case session.StateDenied:
		if n := len(d.Trace); n >= 2 {
			return d.Trace[n-2].String()
		}
	}

	return d.State.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
