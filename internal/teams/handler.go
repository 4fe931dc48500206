package teams

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// Handler exposes team endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers team routes. Browsing is public; creating requires a
// verified account; roster management requires a team-scoped manager role on
// the team named in the URL. Ownership transfer and disband go through the
// service's owner check rather than the role guard because only the single
// owner may perform them.
func (h *Handler) MountRoutes(r chi.Router, guard access.Middleware) {
	r.Get("/", h.list)
	r.Get("/{teamID}", h.get)
	r.Get("/{teamID}/roster", h.roster)
	r.With(guard.RequireAuthenticated, guard.RequireVerified()).Post("/", h.create)

	manage := access.MustRule(access.ScopeTeam, access.TeamManagerRoles()...).FromParam("teamID")
	r.Route("/{teamID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(guard.Require(manage))
			r.Patch("/", h.update)
			r.Post("/roster", h.addRosterMember)
			r.Delete("/roster/{userID}", h.removeRosterMember)
		})
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuthenticated)
			r.Post("/transfer", h.transfer)
			r.Delete("/", h.disband)
		})
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	req := ListTeamsRequest{
		Search: q.Get("search"),
		Game:   q.Get("game"),
		Region: q.Get("region"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	teams, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list teams", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"teams":      teams,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	team, err := h.service.Get(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.service.Roster(r.Context(), chi.URLParam(r, "teamID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roster": roster})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	team, err := h.service.Create(r.Context(), p.ID, req)
	if err != nil {
		h.logger.Error("create team", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req UpdateTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	team, err := h.service.Update(r.Context(), p.ID, chi.URLParam(r, "teamID"), req)
	if err != nil {
		h.logger.Error("update team", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) addRosterMember(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req AddRosterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.AddRosterMember(r.Context(), p.ID, chi.URLParam(r, "teamID"), req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *Handler) removeRosterMember(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if err := h.service.RemoveRosterMember(r.Context(), p.ID, chi.URLParam(r, "teamID"), chi.URLParam(r, "userID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req TransferOwnershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.TransferOwnership(r.Context(), p, chi.URLParam(r, "teamID"), req.NewOwnerID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) disband(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if err := h.service.Disband(r.Context(), p, chi.URLParam(r, "teamID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
