package access_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

type stubSource struct {
	principals map[string]*access.Principal
}

func (s *stubSource) Principal(ctx context.Context, userID string) (*access.Principal, error) {
	p, ok := s.principals[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

type stubSender struct {
	mu    sync.Mutex
	calls int
}

func (s *stubSender) SendVerificationCode(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type guardRig struct {
	router   http.Handler
	sessions *shared.SessionManager
	source   *stubSource
	sender   *stubSender
}

func newGuardRig(t *testing.T) *guardRig {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)

	source := &stubSource{principals: map[string]*access.Principal{}}
	sender := &stubSender{}
	mw := access.Middleware{
		Source:     source,
		Sender:     sender,
		LoginPath:  "/auth/login",
		VerifyPath: "/verify-email",
	}

	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}

	r := chi.NewRouter()
	r.Use(testSessionMiddleware(sessions))
	r.Use(mw.WithPrincipal)
	r.Group(func(r chi.Router) {
		r.Use(mw.Require(access.MustRule(access.ScopeOrg, access.OrgAdminRoles()...).FromParam("orgID")))
		r.Get("/organizer/{orgID}", ok)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Require(access.MustRule(access.ScopePlatform, access.PlatformAdminRoles()...)))
		r.Get("/admin", ok)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireVerified())
		r.Get("/dashboard", ok)
		r.Get("/verify-email", ok)
	})

	return &guardRig{router: r, sessions: sessions, source: source, sender: sender}
}

func testSessionMiddleware(sm *shared.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sm.Load(r.Context(), r)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
			_ = sm.Commit(ctx, w, r, sess)
		})
	}
}

// login creates a persisted session bound to userID and returns its cookie.
func (g *guardRig) login(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := g.sessions.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	sess.SetUser(userID)
	res := httptest.NewRecorder()
	if err := g.sessions.Commit(context.Background(), res, req, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}
	return &http.Cookie{Name: g.sessions.CookieName(), Value: sess.ID}
}

func (g *guardRig) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	g.router.ServeHTTP(res, req)
	return res
}

func TestGuardRedirectsAnonymousToLoginWithFrom(t *testing.T) {
	rig := newGuardRig(t)

	res := rig.get("/organizer/org1", nil)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/auth/login?from=%2Forganizer%2Forg1" {
		t.Fatalf("unexpected redirect target %q", loc)
	}
}

func TestGuardResolvesResourceFromURL(t *testing.T) {
	rig := newGuardRig(t)
	rig.source.principals["u1"] = &access.Principal{
		ID:       "u1",
		Verified: true,
		Roles:    []access.RoleAssignment{{Scope: access.ScopeOrg, Role: access.RoleOrgOwner, ScopeID: "org1"}},
	}
	cookie := rig.login(t, "u1")

	if res := rig.get("/organizer/org1", cookie); res.Code != http.StatusOK {
		t.Fatalf("expected 200 for own org, got %d", res.Code)
	}
	res := rig.get("/organizer/org2", cookie)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 for foreign org, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected fallback redirect, got %q", loc)
	}
}

func TestGuardDeniesMissingRole(t *testing.T) {
	rig := newGuardRig(t)
	rig.source.principals["u1"] = &access.Principal{ID: "u1", Verified: true}
	cookie := rig.login(t, "u1")

	res := rig.get("/admin", cookie)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
}

func TestVerificationGateExemptsVerifyRoute(t *testing.T) {
	rig := newGuardRig(t)
	rig.source.principals["u1"] = &access.Principal{ID: "u1", Verified: false}
	cookie := rig.login(t, "u1")

	// Scenario D: unverified principal already on the verification route.
	if res := rig.get("/verify-email", cookie); res.Code != http.StatusOK {
		t.Fatalf("expected 200 on verify route, got %d", res.Code)
	}

	res := rig.get("/dashboard", cookie)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 off verify route, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/verify-email" {
		t.Fatalf("expected verify redirect, got %q", loc)
	}
}

func TestVerificationGateBouncesVerifiedOffVerifyRoute(t *testing.T) {
	rig := newGuardRig(t)
	rig.source.principals["u1"] = &access.Principal{ID: "u1", Verified: true}
	cookie := rig.login(t, "u1")

	res := rig.get("/verify-email", cookie)
	if res.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.Code)
	}
	if loc := res.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect away from verify route, got %q", loc)
	}
}

func TestVerificationDispatchAtMostOncePerSession(t *testing.T) {
	rig := newGuardRig(t)
	rig.source.principals["u1"] = &access.Principal{ID: "u1", Verified: false}
	cookie := rig.login(t, "u1")

	for i := 0; i < 10; i++ {
		res := rig.get("/dashboard", cookie)
		if res.Code != http.StatusSeeOther {
			t.Fatalf("request %d: expected 303, got %d", i, res.Code)
		}
	}
	if got := rig.sender.count(); got != 1 {
		t.Fatalf("expected exactly 1 dispatch, got %d", got)
	}
}

func TestVerificationDispatchSkippedWhileCodeValid(t *testing.T) {
	rig := newGuardRig(t)
	rig.source.principals["u1"] = &access.Principal{
		ID:            "u1",
		Verified:      false,
		CodeExpiresAt: time.Now().Add(10 * time.Minute),
	}
	cookie := rig.login(t, "u1")

	for i := 0; i < 3; i++ {
		rig.get("/dashboard", cookie)
	}
	if got := rig.sender.count(); got != 0 {
		t.Fatalf("expected no dispatch while code valid, got %d", got)
	}
}
