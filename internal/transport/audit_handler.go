package transport

import (
	"net/http"

	"inventory-api/internal/middleware"
	"inventory-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgInvalidDateFilter = "Invalid date filter."
	msgAuditFailed       = "Error retrieving audit logs."
)

// AuditHandler serves the product audit trail
type AuditHandler struct {
	auditService service.AuditService
	logger       *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService service.AuditService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// RegisterRoutes registers the audit routes behind adminOnly
func (h *AuditHandler) RegisterRoutes(r chi.Router, adminOnly func(http.Handler) http.Handler) {
	r.With(adminOnly).Get("/api/Audit", h.List)
}

// List handles GET /api/Audit?from=&to=
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter, err := service.ParseAuditFilter(query.Get("from"), query.Get("to"))
	if err != nil {
		h.logger.Debug("Invalid audit filter", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, msgInvalidDateFilter)
		return
	}

	entries, err := h.auditService.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("Audit query failed", zap.Error(err))
		middleware.RespondWithErrorDetail(w, http.StatusInternalServerError, msgAuditFailed, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, entries)
}
