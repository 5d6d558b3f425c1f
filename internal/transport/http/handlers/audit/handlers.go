package audithandler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
	WriteCSV(ctx context.Context, w io.Writer, tenantID string, filter audit.Filter) error
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/export", h.handleExportEvents)
	})
}

func filterFromQuery(r *http.Request) audit.Filter {
	query := r.URL.Query()
	return audit.Filter{
		Action:     strings.TrimSpace(query.Get("action")),
		EntityType: strings.TrimSpace(query.Get("entityType")),
		EntityID:   strings.TrimSpace(query.Get("entityId")),
		ActorUser:  strings.TrimSpace(query.Get("actorUserId")),
	}
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := middleware.GetRequestID(r.Context())

	page := shared.ParsePagination(r, 100, 500)
	includeDetails, _ := strconv.ParseBool(r.URL.Query().Get("includeDetails"))
	filter := filterFromQuery(r)

	total, err := h.Service.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}
	events, err := h.Service.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		slog.Warn("audit list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, requestID)
}

// handleExportEvents streams the filtered trail. Once the first row is written
// the status is committed, so later failures are only logged.
func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	if err := h.Service.WriteCSV(r.Context(), w, user.TenantID, filterFromQuery(r)); err != nil {
		slog.Warn("audit export failed", "err", err)
	}
}
