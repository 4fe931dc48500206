package tournaments

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// IdempotencyHeader carries the client-generated key for safe registration
// retries.
const IdempotencyHeader = "Idempotency-Key"

// Handler exposes tournament endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the public tournament surface and the registration
// flow. Organizer-only creation lives under the org routes, see MountOrgRoutes.
func (h *Handler) MountRoutes(r chi.Router, guard access.Middleware) {
	r.Get("/", h.list)
	r.Get("/{tournamentID}", h.get)
	r.Get("/{tournamentID}/registrations", h.registrations)

	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated, guard.RequireVerified())
		r.Post("/{tournamentID}/register", h.register)
		r.Delete("/{tournamentID}/register", h.withdraw)
		r.Post("/registrations/{registrationID}/decide", h.decide)
	})
}

// MountOrgRoutes registers organizer management endpoints under an org
// subtree already guarded by an org-scoped rule on {orgID}.
func (h *Handler) MountOrgRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Patch("/{tournamentID}", h.update)
	r.Post("/{tournamentID}/status", h.updateStatus)
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
	req := ListTournamentsRequest{
		Search: q.Get("search"),
		Game:   q.Get("game"),
		OrgID:  q.Get("org_id"),
		Status: Status(q.Get("status")),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	tournaments, total, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tournaments": tournaments,
		"pagination":  shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) registrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.service.Registrations(r.Context(), chi.URLParam(r, "tournamentID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"registrations": regs})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req CreateTournamentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.Create(r.Context(), p.ID, chi.URLParam(r, "orgID"), req)
	if err != nil {
		h.logger.Error("create tournament", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req UpdateTournamentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.Update(r.Context(), p.ID, chi.URLParam(r, "tournamentID"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	t, err := h.service.UpdateStatus(r.Context(), p.ID, chi.URLParam(r, "tournamentID"), req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	// An empty body is fine here: the team defaults to the actor's home team.
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reg, err := h.service.Register(r.Context(), p, chi.URLParam(r, "tournamentID"), req.TeamID, r.Header.Get(IdempotencyHeader))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if err := h.service.Withdraw(r.Context(), p, chi.URLParam(r, "tournamentID"), r.URL.Query().Get("team_id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "withdrawn"})
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	var req DecideRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reg, err := h.service.Decide(r.Context(), p, chi.URLParam(r, "registrationID"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reg)
}
