package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "exitprotocol/internal/errors"
	"exitprotocol/internal/pagination"
	"exitprotocol/internal/services"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs handles listing audit entries
// @Summary     List audit logs
// @Description Who created claims, triggered calculations and imported statements, newest first
// @Tags        audit
// @Produce     json
// @Param       resource_type query string false "account, claim or transaction"
// @Param       resource_id   query string false "Resource ID"
// @Param       actor         query string false "Actor"
// @Param       action        query string false "Action, e.g. CALCULATE_CLAIM"
// @Param       page          query int    false "Page number (default 1)"
// @Param       page_size     query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit logs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.auditService.GetAuditLogs(services.AuditFilter{
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Actor:        c.Query("actor"),
		Action:       c.Query("action"),
	}, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
