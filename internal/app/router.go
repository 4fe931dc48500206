package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/auth"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/notifications"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/observability"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/orgs"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/teams"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/tournaments"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/users"
	"github.com/ravikarmakar/gaming-hub-sub004/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          access.Middleware

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	OrgsHandler         *orgs.Handler
	TeamsHandler        *teams.Handler
	TournamentsHandler  *tournaments.Handler
	NotificationHandler *notifications.Handler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// navLinks is the static navigation table the SPA renders from. Rules are
// built with MustRule so a typo in the table kills the process at startup.
var navLinks = []access.Link{
	{Label: "Home", Path: "/"},
	{Label: "Tournaments", Path: "/tournaments"},
	{Label: "Teams", Path: "/teams"},
	{Label: "Organizer", Path: "/organizer", Rule: ruleP(access.MustRule(access.ScopeOrg, access.OrgAdminRoles()...))},
	{Label: "Team Manager", Path: "/team-manager", Rule: ruleP(access.MustRule(access.ScopeTeam, access.TeamManagerRoles()...))},
	{Label: "Admin", Path: "/admin", Rule: ruleP(access.MustRule(access.ScopePlatform, access.PlatformAdminRoles()...))},
}

func ruleP(r access.Rule) *access.Rule { return &r }

// NewRouter constructs the chi.Router with Gaming Hub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Guard.WithPrincipal)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/orgs", func(r chi.Router) {
			params.OrgsHandler.MountRoutes(r, params.Guard)

			// Organizer tournament management inherits the org-scoped guard.
			manage := access.MustRule(access.ScopeOrg, access.OrgAdminRoles()...).FromParam("orgID")
			r.Route("/{orgID}/tournaments", func(r chi.Router) {
				r.Use(params.Guard.Require(manage))
				params.TournamentsHandler.MountOrgRoutes(r)
			})
		})
		r.Route("/teams", func(r chi.Router) {
			params.TeamsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/tournaments", func(r chi.Router) {
			params.TournamentsHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/notifications", func(r chi.Router) {
			params.NotificationHandler.MountRoutes(r, params.Guard)
		})

		// The SPA asks which navigation entries to draw; the answer is
		// recomputed from the current principal snapshot on every call.
		r.Get("/navigation", func(w http.ResponseWriter, r *http.Request) {
			p := access.PrincipalFromContext(r.Context())
			httpx.JSON(w, http.StatusOK, map[string]any{
				"links": access.FilterVisible(navLinks, p),
			})
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
