package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/auth"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
	_ "github.com/ravikarmakar/gaming-hub-sub004/testing"
)

type stubRepo struct {
	mu          sync.Mutex
	users       map[string]*auth.User
	byEmail     map[string]string
	assignments map[string][]access.RoleAssignment
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:       make(map[string]*auth.User),
		byEmail:     make(map[string]string),
		assignments: make(map[string][]access.RoleAssignment),
	}
}

func (s *stubRepo) CreateUser(ctx context.Context, user *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return httpx.ErrDuplicate
	}
	cp := *user
	s.users[user.ID] = &cp
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubRepo) SetVerificationCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.CodeHash = &codeHash
	u.CodeExpiresAt = &expiresAt
	return nil
}

func (s *stubRepo) MarkVerified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Verified = true
	u.CodeHash = nil
	u.CodeExpiresAt = nil
	return nil
}

func (s *stubRepo) ListAssignments(ctx context.Context, userID string) ([]access.RoleAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]access.RoleAssignment(nil), s.assignments[userID]...), nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type stubQueue struct {
	mu       sync.Mutex
	lastCode string
	sent     int
}

func (q *stubQueue) EnqueueVerificationEmail(ctx context.Context, to, code string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lastCode = code
	q.sent++
	return nil
}

type authRig struct {
	router        http.Handler
	sessions      *shared.SessionManager
	queue         *stubQueue
	lastSessionID string
}

func newAuthRig(t *testing.T) *authRig {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")

	queue := &stubQueue{}
	service := auth.NewService(newStubRepo(), queue, 15*time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, service, sessions, csrf)
	mw := access.Middleware{Source: service}

	rig := &authRig{sessions: sessions, queue: queue}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessions.Load(req.Context(), req)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			rig.lastSessionID = sess.ID
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(w, req.WithContext(ctx))
			_ = sessions.Commit(ctx, w, req, sess)
		})
	})
	r.Use(mw.WithPrincipal)
	r.Route("/api/auth", handler.MountRoutes)

	rig.router = r
	return rig
}

func (rig *authRig) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res := httptest.NewRecorder()
	rig.router.ServeHTTP(res, req)
	return res
}

func (rig *authRig) sessionCookie() *http.Cookie {
	return &http.Cookie{Name: rig.sessions.CookieName(), Value: rig.lastSessionID}
}

func TestRegisterLoginMe(t *testing.T) {
	rig := newAuthRig(t)

	res := rig.do(http.MethodPost, "/api/auth/register", `{"email":"p1@hub.gg","username":"player1","password":"supersecret"}`, nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", res.Code, res.Body.String())
	}
	if rig.queue.sent != 1 {
		t.Fatalf("expected 1 verification email, got %d", rig.queue.sent)
	}
	cookie := rig.sessionCookie()

	res = rig.do(http.MethodGet, "/api/auth/me", "", cookie)
	if res.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", res.Code)
	}
	var me struct {
		Username string `json:"username"`
		Verified bool   `json:"verified"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Username != "player1" || me.Verified {
		t.Fatalf("unexpected principal %+v", me)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	rig := newAuthRig(t)
	body := `{"email":"p1@hub.gg","username":"player1","password":"supersecret"}`

	res := rig.do(http.MethodPost, "/api/auth/register", body, nil)
	if res.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", res.Code)
	}

	res = rig.do(http.MethodPost, "/api/auth/register", body, nil)
	if res.Code != http.StatusConflict {
		t.Fatalf("second register: expected 409, got %d body=%s", res.Code, res.Body.String())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	rig := newAuthRig(t)
	rig.do(http.MethodPost, "/api/auth/register", `{"email":"p1@hub.gg","username":"player1","password":"supersecret"}`, nil)

	res := rig.do(http.MethodPost, "/api/auth/login", `{"email":"p1@hub.gg","password":"wrongpass"}`, nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestVerifyEmailFlow(t *testing.T) {
	rig := newAuthRig(t)
	rig.do(http.MethodPost, "/api/auth/register", `{"email":"p1@hub.gg","username":"player1","password":"supersecret"}`, nil)
	cookie := rig.sessionCookie()

	res := rig.do(http.MethodPost, "/api/auth/verify", `{"code":"000000"}`, cookie)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("wrong code: expected 400, got %d", res.Code)
	}

	res = rig.do(http.MethodPost, "/api/auth/verify", `{"code":"`+rig.queue.lastCode+`"}`, cookie)
	if res.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	res = rig.do(http.MethodGet, "/api/auth/me", "", cookie)
	var me struct {
		Verified bool `json:"verified"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if !me.Verified {
		t.Fatalf("expected verified principal")
	}
}
