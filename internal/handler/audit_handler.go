package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, actor *models.JWTClaims, query dto.AuditListQuery) ([]models.AuditEntry, *models.Pagination, error)
}

// AuditHandler exposes forensic reads of the audit trail.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param table query string false "Table name"
// @Param recordId query string false "Record ID"
// @Param actor query string false "Actor user ID"
// @Param action query string false "Action"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query dto.AuditListQuery
	if !bindQuery(c, &query) {
		return
	}
	entries, pagination, err := h.service.List(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
