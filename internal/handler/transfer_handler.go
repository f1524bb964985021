package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/officer-registry-api/internal/dto"
	"github.com/noah-isme/officer-registry-api/internal/models"
	"github.com/noah-isme/officer-registry-api/pkg/response"
)

type transferService interface {
	TransferIn(ctx context.Context, actor *models.JWTClaims, req dto.TransferInRequest) (*dto.TransferInResponse, error)
	TransferOut(ctx context.Context, actor *models.JWTClaims, req dto.TransferOutRequest) (*dto.TransferOutResponse, error)
	RemoveOfficer(ctx context.Context, actor *models.JWTClaims, req dto.RemovalRequest) (*dto.RemovalResponse, error)
}

type ledgerService interface {
	ListTransfers(ctx context.Context, actor *models.JWTClaims, query dto.TransferListQuery) ([]dto.TransferView, *models.Pagination, error)
	ListRemovals(ctx context.Context, actor *models.JWTClaims, query dto.RemovalListQuery) ([]dto.RemovalView, *models.Pagination, error)
	ClearView(ctx context.Context, actor *models.JWTClaims, view string, req dto.ScopeRequest) (*models.ViewMarker, error)
}

// TransferHandler exposes transfers, removals and report view markers. Transfer and removal
// requests are not idempotent; retrying a successful call is rejected or duplicates the ledger row.
type TransferHandler struct {
	lifecycle transferService
	ledger    ledgerService
}

// NewTransferHandler constructs the handler.
func NewTransferHandler(lifecycle transferService, ledger ledgerService) *TransferHandler {
	return &TransferHandler{lifecycle: lifecycle, ledger: ledger}
}

// TransferIn godoc
// @Summary Record an incoming officer
// @Description Creates the officer, appends an inbound ledger row and increments the destination headcount in one transaction.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.TransferInRequest true "Transfer-in payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /transfers/in [post]
func (h *TransferHandler) TransferIn(c *gin.Context) {
	var req dto.TransferInRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lifecycle.TransferIn(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// TransferOut godoc
// @Summary Record an outgoing officer
// @Description Deactivates the officer, snapshots the department, appends an outbound ledger row and decrements the origin headcount.
// @Tags Transfers
// @Accept json
// @Produce json
// @Param payload body dto.TransferOutRequest true "Transfer-out payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transfers/out [post]
func (h *TransferHandler) TransferOut(c *gin.Context) {
	var req dto.TransferOutRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lifecycle.TransferOut(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListTransfers godoc
// @Summary List the transfer ledger
// @Description Outbound listings of a congregation hide rows older than the last view clear unless include_cleared is true.
// @Tags Transfers
// @Produce json
// @Param direction query string false "in or out"
// @Param district query string false "District code"
// @Param congregation query string false "Congregation code"
// @Param week query int false "ISO week"
// @Param year query int false "ISO year"
// @Param include_cleared query bool false "Include cleared rows"
// @Success 200 {object} response.Envelope
// @Router /transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	var query dto.TransferListQuery
	if !bindQuery(c, &query) {
		return
	}
	items, pagination, err := h.ledger.ListTransfers(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Remove godoc
// @Summary Remove an officer
// @Description Deactivates the officer, records the removal with its reason code and decrements the headcount.
// @Tags Removals
// @Accept json
// @Produce json
// @Param payload body dto.RemovalRequest true "Removal payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /removals [post]
func (h *TransferHandler) Remove(c *gin.Context) {
	var req dto.RemovalRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.lifecycle.RemoveOfficer(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListRemovals godoc
// @Summary List removal records
// @Tags Removals
// @Produce json
// @Param district query string false "District code"
// @Param congregation query string false "Congregation code"
// @Param code query string false "Removal code"
// @Success 200 {object} response.Envelope
// @Router /removals [get]
func (h *TransferHandler) ListRemovals(c *gin.Context) {
	var query dto.RemovalListQuery
	if !bindQuery(c, &query) {
		return
	}
	items, pagination, err := h.ledger.ListRemovals(c.Request.Context(), claimsFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// ClearView godoc
// @Summary Clear a report view
// @Description Records a marker so the view lists only newer rows. Ledger rows are never modified.
// @Tags Views
// @Accept json
// @Produce json
// @Param view path string true "transfers_out or classification_changes"
// @Param payload body dto.ScopeRequest true "Congregation"
// @Success 201 {object} response.Envelope
// @Router /views/{view}/clear [post]
func (h *TransferHandler) ClearView(c *gin.Context) {
	var req dto.ScopeRequest
	if !bindJSON(c, &req) {
		return
	}
	marker, err := h.ledger.ClearView(c.Request.Context(), claimsFromContext(c), c.Param("view"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, marker)
}
