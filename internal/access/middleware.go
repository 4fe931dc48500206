package access

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// Session key guarding the one-shot verification-code dispatch. Part of the
// session's retained state, never recomputed per evaluation.
const verifyDispatchKey = "verify_code_sent"

// PrincipalSource builds the principal snapshot for a session user id.
type PrincipalSource interface {
	Principal(ctx context.Context, userID string) (*Principal, error)
}

// CodeSender (re)issues a verification code for the user. Failures are logged
// by the guard, never surfaced as a guard failure.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, userID string) error
}

// Middleware wires the route guards. Principal data flows in through the
// request context, never through package globals.
type Middleware struct {
	Source PrincipalSource
	Sender CodeSender
	Logger *slog.Logger

	// LoginPath receives unauthenticated redirects, FallbackPath receives
	// unauthorized ones, VerifyPath hosts the account-verification flow.
	LoginPath    string
	FallbackPath string
	VerifyPath   string
}

func (m Middleware) loginPath() string {
	if m.LoginPath == "" {
		return "/auth/login"
	}
	return m.LoginPath
}

func (m Middleware) fallbackPath() string {
	if m.FallbackPath == "" {
		return "/"
	}
	return m.FallbackPath
}

func (m Middleware) verifyPath() string {
	if m.VerifyPath == "" {
		return "/verify-email"
	}
	return m.VerifyPath
}

// WithPrincipal resolves the session user into a principal snapshot and
// stores it in the request context. A missing or failing lookup leaves the
// context without a principal; downstream guards then deny.
func (m Middleware) WithPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" || m.Source == nil {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.Source.Principal(r.Context(), sess.User())
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("load principal", slog.String("user_id", sess.User()), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// Require gates a subtree behind the rule. No principal redirects to the
// login path with the originally requested location preserved in the `from`
// query parameter; a principal that fails the rule redirects to the fallback
// path. Evaluation never panics and never grants on ambiguous input.
func (m Middleware) Require(rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				m.redirectToLogin(w, r)
				return
			}
			resolved := rule
			if rule.ResourceParam != "" {
				id := chi.URLParam(r, rule.ResourceParam)
				if id == "" {
					// Cannot resolve the instance the rule requires: deny.
					http.Redirect(w, r, m.fallbackPath(), http.StatusSeeOther)
					return
				}
				resolved = rule.ForResource(id)
			}
			if !CanAccess(p, resolved) {
				http.Redirect(w, r, m.fallbackPath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated gates a subtree behind any authenticated principal,
// with no role requirement.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			m.redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireVerified forces unverified principals onto the verification route
// regardless of any access rule, except when already there, and bounces
// verified principals off it. At most one verification-code dispatch happens
// per unverified-session lifetime, and none while a previously issued code is
// still inside its validity window.
func (m Middleware) RequireVerified() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				m.redirectToLogin(w, r)
				return
			}
			onVerifyRoute := r.URL.Path == m.verifyPath()
			if p.Verified {
				if onVerifyRoute {
					http.Redirect(w, r, m.fallbackPath(), http.StatusSeeOther)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if onVerifyRoute {
				next.ServeHTTP(w, r)
				return
			}
			m.dispatchCodeOnce(r, p)
			http.Redirect(w, r, m.verifyPath(), http.StatusSeeOther)
		})
	}
}

func (m Middleware) dispatchCodeOnce(r *http.Request, p *Principal) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || m.Sender == nil {
		return
	}
	if codeStillValid(p) {
		return
	}
	if sess.Get(verifyDispatchKey) == "1" {
		return
	}
	sess.Set(verifyDispatchKey, "1")
	if err := m.Sender.SendVerificationCode(r.Context(), p.ID); err != nil && m.Logger != nil {
		m.Logger.Warn("send verification code", slog.String("user_id", p.ID), slog.Any("error", err))
	}
}

// codeStillValid reports whether the principal's outstanding verification
// code is inside its validity window.
func codeStillValid(p *Principal) bool {
	return !p.CodeExpiresAt.IsZero() && time.Now().Before(p.CodeExpiresAt)
}

func (m Middleware) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := m.loginPath() + "?from=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}
