package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/export"
	"github.com/noah-isme/officer-registry-api/pkg/response"
)

type exportService interface {
	Headcount(ctx context.Context, actor *models.JWTClaims, query dto.ExportQuery) (*export.Document, error)
	Transfers(ctx context.Context, actor *models.JWTClaims, query dto.ExportQuery) (*export.Document, error)
}

// ExportHandler streams rendered reports.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Headcount godoc
// @Summary Export headcounts
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx"
// @Param district query string false "District code"
// @Param congregation query string false "Congregation code"
// @Success 200 {file} file
// @Router /exports/headcount [get]
func (h *ExportHandler) Headcount(c *gin.Context) {
	h.serve(c, h.service.Headcount)
}

// Transfers godoc
// @Summary Export the transfer ledger
// @Tags Exports
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx"
// @Param direction query string false "in or out"
// @Param week query int false "ISO week"
// @Param year query int false "ISO year"
// @Success 200 {file} file
// @Router /exports/transfers [get]
func (h *ExportHandler) Transfers(c *gin.Context) {
	h.serve(c, h.service.Transfers)
}

func (h *ExportHandler) serve(c *gin.Context, render func(context.Context, *models.JWTClaims, dto.ExportQuery) (*export.Document, error)) {
	var query dto.ExportQuery
	if !bindQuery(c, &query) {
		return
	}
	doc, err := render(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}
