package notifications

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ravikarmakar/gaming-hub-sub004/internal/access"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/platform/httpx"
	"github.com/ravikarmakar/gaming-hub-sub004/internal/shared"
)

// Handler exposes the per-user notification feed.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers feed routes. Everything here is the caller's own
// feed, so a plain authentication guard suffices.
func (h *Handler) MountRoutes(r chi.Router, guard access.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(guard.RequireAuthenticated)
		r.Get("/", h.feed)
		r.Get("/unread-count", h.unreadCount)
		r.Post("/{notificationID}/read", h.markRead)
	})
}

func (h *Handler) feed(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	feed, total, err := h.service.Feed(r.Context(), p.ID, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"notifications": feed,
		"pagination":    shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	n, err := h.service.UnreadCount(r.Context(), p.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	p := access.PrincipalFromContext(r.Context())
	if err := h.service.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), p.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
